// Package convert plans and runs local file conversion batches. Inputs are
// literal paths or glob patterns; every match becomes one work item.
package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mmcli/internal/batch"
	"mmcli/internal/config"
	"mmcli/internal/ffmpeg"
	"mmcli/internal/mediafmt"
	"mmcli/internal/outpath"
)

// Request is one convert invocation.
type Request struct {
	Patterns  []string // literal paths or glob patterns
	Format    string   // target container alias, required
	OutputDir string
	Workers   int
	Observer  batch.Observer
}

type Converter struct {
	Transcoder ffmpeg.Transcoder
	Config     config.Config
}

func New(cfg config.Config) *Converter {
	return &Converter{Transcoder: ffmpeg.NewRunner(), Config: cfg}
}

// Run expands the input patterns and executes the conversion batch.
func (c *Converter) Run(ctx context.Context, req Request) (*batch.Report, error) {
	if req.Format == "" {
		return nil, batch.NewError(batch.KindValidation, "target format is required")
	}
	if _, ok := mediafmt.Lookup(req.Format); !ok {
		return nil, batch.NewError(batch.KindValidation, "unknown target format %q", req.Format)
	}

	paths, err := Expand(req.Patterns)
	if err != nil {
		return nil, err
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = c.Config.Conversion.OutputDir
	}
	// zero means "use the configured default"; negative values pass through
	// so they are rejected the same way as any other invalid worker count
	workers := req.Workers
	if workers == 0 {
		workers = c.Config.Downloads.Playlist.MaxWorkers
	}

	targets := make([]batch.Target, 0, len(paths))
	for _, p := range paths {
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		targets = append(targets, batch.Target{Source: p, Name: stem})
	}

	naming := c.Config.General.Naming
	opts := batch.Options{
		OutputDir:    outputDir,
		TargetFormat: req.Format,
		AllowFormats: mediafmt.Aliases(),
		Workers:      workers,
		ItemTimeout:  c.Config.General.ItemTimeout,
		Grace:        c.Config.General.GracePeriod,
		Resolver: outpath.New(outpath.Options{
			AddTimestamp:  naming.AddTimestamp,
			Sanitize:      naming.SanitizeFilenames,
			MaxStemLength: naming.MaxFilenameLength,
		}),
		Observer: req.Observer,
		Execute:  c.execute(),
	}
	return batch.Run(ctx, targets, opts)
}

func (c *Converter) execute() batch.ExecuteFunc {
	return func(ctx context.Context, item *batch.WorkItem) batch.Outcome {
		start := time.Now()

		if _, err := os.Stat(item.Source); err != nil {
			return batch.Failure(item.ID, batch.WrapError(batch.KindIO, err, "input file is not readable"), time.Since(start))
		}
		outputPath := item.OutputPath()
		if err := c.Transcoder.Transcode(ctx, item.Source, outputPath, item.TargetFormat, c.options(item.TargetFormat)); err != nil {
			return batch.Failure(item.ID, err, time.Since(start))
		}
		return batch.Success(item.ID, outputPath, time.Since(start))
	}
}

func (c *Converter) options(formatAlias string) ffmpeg.Options {
	conv := c.Config.Conversion
	format, _ := mediafmt.Lookup(formatAlias)
	if format.Kind == mediafmt.KindAudio {
		return ffmpeg.Options{
			AudioCodec:      conv.Audio.DefaultCodec,
			AudioBitrate:    conv.Audio.Bitrate,
			PreserveQuality: conv.Audio.PreserveQuality,
		}
	}
	return ffmpeg.Options{
		VideoCodec:      conv.Video.DefaultCodec,
		AudioCodec:      conv.Audio.DefaultCodec,
		AudioBitrate:    conv.Audio.Bitrate,
		PreserveQuality: conv.Video.PreserveQuality,
	}
}

// Expand resolves literal paths and glob patterns into a deduplicated,
// ordered list of input files. A pattern matching nothing, or an empty total
// result, is a validation error so typos fail loudly instead of producing an
// empty batch.
func Expand(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, batch.NewError(batch.KindValidation, "at least one input path is required")
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, batch.WrapError(batch.KindValidation, err, "input %q does not exist", pattern)
			}
			if info.IsDir() {
				return nil, batch.NewError(batch.KindValidation, "input %q is a directory, pass files or a glob", pattern)
			}
			add(pattern)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, batch.WrapError(batch.KindValidation, err, "bad glob pattern %q", pattern)
		}
		if len(matches) == 0 {
			return nil, batch.NewError(batch.KindValidation, "pattern %q matched no files", pattern)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				add(m)
			}
		}
	}

	if len(out) == 0 {
		return nil, batch.NewError(batch.KindValidation, "no input files after expansion")
	}
	return out, nil
}
