// Package ffmpeg converts media files between container formats by shelling
// out to the ffmpeg binary.
package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"mmcli/internal/batch"
	"mmcli/internal/mediafmt"
)

// Options tunes one conversion. Zero values mean stream copy where the
// container allows it and sensible encoder defaults where it does not.
type Options struct {
	VideoCodec      string
	AudioCodec      string
	AudioBitrate    string
	PreserveQuality bool
}

type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath, formatAlias string, opts Options) error
}

// Runner executes ffmpeg. Path defaults to the binary name so PATH lookup
// applies.
type Runner struct {
	Path string
}

func NewRunner() *Runner {
	return &Runner{Path: "ffmpeg"}
}

func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.Path)
	return err == nil
}

// Transcode converts inputPath into the container named by formatAlias,
// writing to outputPath. The alias must resolve through the format registry;
// the registered muxer name is passed to ffmpeg explicitly so the output
// extension never has to carry the decision.
func (r *Runner) Transcode(ctx context.Context, inputPath, outputPath, formatAlias string, opts Options) error {
	format, ok := mediafmt.Lookup(formatAlias)
	if !ok {
		return batch.NewError(batch.KindUnsupportedFormat, "unknown target format %q", formatAlias)
	}

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
	}
	args = append(args, codecArgs(format, opts)...)
	args = append(args, "-f", format.Muxer, outputPath)

	cmd := exec.CommandContext(ctx, r.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return batch.WrapError(batch.KindTimeout, ctx.Err(), "conversion cancelled for %s", inputPath)
		}
		detail := strings.TrimSpace(stderr.String())
		return batch.WrapError(classify(detail), err, "ffmpeg failed for %s: %s", inputPath, lastLine(detail))
	}
	return nil
}

func codecArgs(format mediafmt.Format, opts Options) []string {
	switch format.Kind {
	case mediafmt.KindAudio:
		args := []string{"-vn"}
		codec := opts.AudioCodec
		if codec == "" {
			codec = "aac"
		}
		if opts.PreserveQuality {
			codec = "copy"
		}
		args = append(args, "-c:a", codec)
		if codec != "copy" && opts.AudioBitrate != "" {
			args = append(args, "-b:a", opts.AudioBitrate)
		}
		return args
	case mediafmt.KindImage:
		return []string{"-frames:v", "1"}
	case mediafmt.KindSubtitle:
		return nil
	default:
		if opts.PreserveQuality {
			return []string{"-c", "copy"}
		}
		videoCodec := opts.VideoCodec
		if videoCodec == "" {
			videoCodec = "libx264"
		}
		audioCodec := opts.AudioCodec
		if audioCodec == "" {
			audioCodec = "aac"
		}
		args := []string{"-c:v", videoCodec, "-c:a", audioCodec}
		if opts.AudioBitrate != "" {
			args = append(args, "-b:a", opts.AudioBitrate)
		}
		return args
	}
}

var formatHints = []string{
	"unknown format",
	"unable to find a suitable output format",
	"invalid data found when processing input",
	"could not find codec parameters",
}

var codecHints = []string{
	"unknown encoder",
	"encoder not found",
	"decoder not found",
	"unsupported codec",
	"incorrect codec parameters",
	"could not open encoder",
	"experimental codecs are not enabled",
}

var ioHints = []string{
	"no such file or directory",
	"permission denied",
	"no space left on device",
	"is a directory",
}

func classify(stderr string) batch.ErrorKind {
	text := strings.ToLower(stderr)
	for _, h := range formatHints {
		if strings.Contains(text, h) {
			return batch.KindUnsupportedFormat
		}
	}
	for _, h := range codecHints {
		if strings.Contains(text, h) {
			return batch.KindCodec
		}
	}
	for _, h := range ioHints {
		if strings.Contains(text, h) {
			return batch.KindIO
		}
	}
	return batch.KindCodec
}

// lastLine returns the final non-empty stderr line, which is where ffmpeg
// puts the actual failure after pages of configuration noise.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return s
}
