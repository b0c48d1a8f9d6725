// Package config loads mmcli settings from a config file and environment
// overrides. The loaded value is passed explicitly into constructors; there
// is no package-level configuration state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Downloads  DownloadsConfig
	Conversion ConversionConfig
	General    GeneralConfig
}

type DownloadsConfig struct {
	OutputDir string
	Video     VideoDefaults
	Audio     AudioDefaults
	Playlist  PlaylistDefaults
}

type VideoDefaults struct {
	Format     string
	Resolution string // "highest" or an explicit value like "720p"
}

type AudioDefaults struct {
	Format string
}

type PlaylistDefaults struct {
	MaxWorkers       int
	CreateSubfolders bool
	BatchConvert     bool
}

type ConversionConfig struct {
	OutputDir string
	Video     VideoConversion
	Audio     AudioConversion
}

type VideoConversion struct {
	PreserveQuality bool
	DefaultCodec    string
}

type AudioConversion struct {
	PreserveQuality bool
	DefaultCodec    string
	Bitrate         string
}

type GeneralConfig struct {
	Verbose     bool
	ProgressBar bool
	AutoCleanup bool
	ItemTimeout time.Duration // zero disables the per-item deadline
	GracePeriod time.Duration
	Naming      NamingConfig
}

type NamingConfig struct {
	AddTimestamp      bool
	SanitizeFilenames bool
	MaxFilenameLength int
}

// Load reads mmcli.{toml,yaml} (or config.{toml,yaml}) from the working
// directory and ~/.config/mmcli, merged over built-in defaults. Environment
// variables prefixed MMCLI_ override both. An explicit path skips the
// search. A missing config file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MMCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := readFirstFound(v); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Downloads: DownloadsConfig{
			OutputDir: v.GetString("downloads.output_dir"),
			Video: VideoDefaults{
				Format:     v.GetString("downloads.video.format"),
				Resolution: v.GetString("downloads.video.resolution"),
			},
			Audio: AudioDefaults{
				Format: v.GetString("downloads.audio.format"),
			},
			Playlist: PlaylistDefaults{
				MaxWorkers:       v.GetInt("downloads.playlist.max_workers"),
				CreateSubfolders: v.GetBool("downloads.playlist.create_subfolders"),
				BatchConvert:     v.GetBool("downloads.playlist.batch_convert"),
			},
		},
		Conversion: ConversionConfig{
			OutputDir: v.GetString("conversion.output_dir"),
			Video: VideoConversion{
				PreserveQuality: v.GetBool("conversion.video.preserve_quality"),
				DefaultCodec:    v.GetString("conversion.video.default_codec"),
			},
			Audio: AudioConversion{
				PreserveQuality: v.GetBool("conversion.audio.preserve_quality"),
				DefaultCodec:    v.GetString("conversion.audio.default_codec"),
				Bitrate:         v.GetString("conversion.audio.bitrate"),
			},
		},
		General: GeneralConfig{
			Verbose:     v.GetBool("general.verbose"),
			ProgressBar: v.GetBool("general.progress_bar"),
			AutoCleanup: v.GetBool("general.auto_cleanup"),
			ItemTimeout: v.GetDuration("general.item_timeout"),
			GracePeriod: v.GetDuration("general.grace_period"),
			Naming: NamingConfig{
				AddTimestamp:      v.GetBool("general.naming.add_timestamp"),
				SanitizeFilenames: v.GetBool("general.naming.sanitize_filenames"),
				MaxFilenameLength: v.GetInt("general.naming.max_filename_length"),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("downloads.output_dir", "downloads")
	v.SetDefault("downloads.video.format", "mp4")
	v.SetDefault("downloads.video.resolution", "highest")
	v.SetDefault("downloads.audio.format", "m4a")
	v.SetDefault("downloads.playlist.max_workers", 3)
	v.SetDefault("downloads.playlist.create_subfolders", true)
	v.SetDefault("downloads.playlist.batch_convert", true)

	v.SetDefault("conversion.output_dir", "converter")
	v.SetDefault("conversion.video.preserve_quality", true)
	v.SetDefault("conversion.video.default_codec", "libx264")
	v.SetDefault("conversion.audio.preserve_quality", true)
	v.SetDefault("conversion.audio.default_codec", "aac")
	v.SetDefault("conversion.audio.bitrate", "128k")

	v.SetDefault("general.verbose", false)
	v.SetDefault("general.progress_bar", true)
	v.SetDefault("general.auto_cleanup", true)
	v.SetDefault("general.item_timeout", time.Duration(0))
	v.SetDefault("general.grace_period", 5*time.Second)
	v.SetDefault("general.naming.add_timestamp", true)
	v.SetDefault("general.naming.sanitize_filenames", true)
	v.SetDefault("general.naming.max_filename_length", 255)
}

func readFirstFound(v *viper.Viper) error {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mmcli"))
	}
	for _, name := range []string{"mmcli", "config"} {
		v.SetConfigName(name)
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		err := v.ReadInConfig()
		if err == nil {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (c Config) validate() error {
	if c.Downloads.Playlist.MaxWorkers < 1 {
		return fmt.Errorf("downloads.playlist.max_workers must be at least 1, got %d", c.Downloads.Playlist.MaxWorkers)
	}
	if c.General.Naming.MaxFilenameLength < 1 {
		return fmt.Errorf("general.naming.max_filename_length must be positive, got %d", c.General.Naming.MaxFilenameLength)
	}
	if c.General.GracePeriod < 0 || c.General.ItemTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
