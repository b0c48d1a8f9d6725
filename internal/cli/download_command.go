package cli

import (
	"context"

	"github.com/spf13/cobra"

	"mmcli/internal/batch"
	"mmcli/internal/download"
	"mmcli/internal/ytdl"
)

func newDownloadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download YouTube videos, audio tracks or whole playlists",
	}
	cmd.AddCommand(newDownloadVideoCmd(a), newDownloadAudioCmd(a))
	return cmd
}

func newDownloadVideoCmd(a *app) *cobra.Command {
	var (
		format     string
		resolution string
	)

	cmd := &cobra.Command{
		Use:   "video URL...",
		Short: "Download videos (a single playlist URL expands to all entries)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.Downloads.Video.Format
			}
			if resolution == "" {
				resolution = a.cfg.Downloads.Video.Resolution
			}
			d := download.New(a.cfg)
			return a.runBatch(cmd, "Downloading video", func(ctx context.Context, obs batch.Observer) (*batch.Report, error) {
				return d.Run(ctx, download.Request{
					URLs:       args,
					Kind:       ytdl.MediaVideo,
					Format:     format,
					Resolution: resolution,
					OutputDir:  a.outputDir,
					Workers:    a.workers,
					Observer:   obs,
				})
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "target container (default from config, e.g. mp4)")
	cmd.Flags().StringVar(&resolution, "resolution", "", "maximum resolution, e.g. 720p (default from config)")
	cmd.Flags().StringVar(&a.outputDir, "output-dir", "", "base output directory (default from config)")
	cmd.Flags().IntVar(&a.workers, "workers", 0, "concurrent downloads (default from config)")
	return cmd
}

func newDownloadAudioCmd(a *app) *cobra.Command {
	var (
		format       string
		keepOriginal bool
	)

	cmd := &cobra.Command{
		Use:   "audio URL...",
		Short: "Download audio tracks only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" && !keepOriginal {
				format = a.cfg.Downloads.Audio.Format
			}
			d := download.New(a.cfg)
			return a.runBatch(cmd, "Downloading audio", func(ctx context.Context, obs batch.Observer) (*batch.Report, error) {
				return d.Run(ctx, download.Request{
					URLs:      args,
					Kind:      ytdl.MediaAudio,
					Format:    format,
					OutputDir: a.outputDir,
					Workers:   a.workers,
					Observer:  obs,
				})
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "target audio container (default from config, e.g. m4a)")
	cmd.Flags().BoolVar(&keepOriginal, "keep-original", false, "keep whatever container the source provides")
	cmd.Flags().StringVar(&a.outputDir, "output-dir", "", "base output directory (default from config)")
	cmd.Flags().IntVar(&a.workers, "workers", 0, "concurrent downloads (default from config)")
	return cmd
}
