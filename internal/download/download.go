// Package download plans and runs download batches: it routes URLs between
// single videos and playlists, expands playlists into work items, and drives
// the batch core with a fetch-then-place operation.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mmcli/internal/batch"
	"mmcli/internal/config"
	"mmcli/internal/ffmpeg"
	"mmcli/internal/fsio"
	"mmcli/internal/mediafmt"
	"mmcli/internal/outpath"
	"mmcli/internal/ytdl"
)

// Request is one download invocation. Zero values fall back to the loaded
// configuration.
type Request struct {
	URLs       []string
	Kind       ytdl.MediaKind
	Format     string // target container alias; empty keeps the engine's container for audio
	Resolution string
	OutputDir  string
	Workers    int
	Observer   batch.Observer
}

type Downloader struct {
	Fetcher    ytdl.Fetcher
	Lister     ytdl.Lister
	Transcoder ffmpeg.Transcoder
	Config     config.Config
}

func New(cfg config.Config) *Downloader {
	client := ytdl.NewClient()
	return &Downloader{
		Fetcher:    client,
		Lister:     client,
		Transcoder: ffmpeg.NewRunner(),
		Config:     cfg,
	}
}

// Run validates the request, expands playlists, and executes the batch.
func (d *Downloader) Run(ctx context.Context, req Request) (*batch.Report, error) {
	if len(req.URLs) == 0 {
		return nil, batch.NewError(batch.KindValidation, "at least one URL is required")
	}
	for _, u := range req.URLs {
		if !ytdl.IsYouTubeURL(u) {
			return nil, batch.NewError(batch.KindValidation, "not a YouTube URL: %s", u)
		}
	}

	kind := req.Kind
	if kind == "" {
		kind = ytdl.MediaVideo
	}
	if req.Format != "" && !formatAllowed(req.Format, allowedFormats(kind)) {
		return nil, batch.NewError(batch.KindValidation, "format %q is not supported for %s downloads", req.Format, kind)
	}

	targets, outputDir, playlist, err := d.plan(ctx, req, kind)
	if err != nil {
		return nil, err
	}

	// zero means "use the configured default"; negative values pass through
	// so they are rejected the same way as any other invalid worker count
	workers := req.Workers
	if workers == 0 {
		workers = d.Config.Downloads.Playlist.MaxWorkers
	}

	// playlist items land in their original container first and get converted
	// in one pass afterwards when batch_convert is on
	deferConvert := playlist && req.Format != "" && d.Config.Downloads.Playlist.BatchConvert
	targetFormat := req.Format
	obs := req.Observer
	if obs == nil {
		obs = batch.NopObserver{}
	}
	batchObs := obs
	if deferConvert {
		targetFormat = ""
		batchObs = withheldFinish{obs}
	}

	opts := batch.Options{
		OutputDir:    outputDir,
		TargetFormat: targetFormat,
		AllowFormats: allowedFormats(kind),
		Workers:      workers,
		ItemTimeout:  d.Config.General.ItemTimeout,
		Grace:        d.Config.General.GracePeriod,
		Resolver:     d.resolver(),
		Observer:     batchObs,
		Execute:      d.execute(kind, req),
	}
	report, err := batch.Run(ctx, targets, opts)
	if err != nil {
		return nil, err
	}
	if deferConvert {
		d.convertDownloaded(ctx, report, req.Format, kind)
		obs.BatchFinished(*report)
	}
	return report, nil
}

// convertDownloaded is the deferred conversion pass for playlist batches:
// every successfully downloaded file whose container differs from the target
// is transcoded next to itself and the original removed. A failed conversion
// keeps the original file and the item stays successful, matching single-item
// behavior where the media is already safely on disk.
func (d *Downloader) convertDownloaded(ctx context.Context, report *batch.Report, format string, kind ytdl.MediaKind) {
	for i := range report.Outcomes {
		out := &report.Outcomes[i]
		if out.Status != batch.StatusSuccess {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(out.OutputPath), ".")
		if strings.EqualFold(ext, format) {
			continue
		}
		target := convertTarget(out.OutputPath, format)
		if err := d.Transcoder.Transcode(ctx, out.OutputPath, target, format, d.transcodeOptions(kind)); err != nil {
			_ = os.Remove(target)
			continue
		}
		_ = os.Remove(out.OutputPath)
		out.OutputPath = target
	}
}

// convertTarget picks a sibling path with the target extension, stepping a
// numeric suffix past anything already on disk.
func convertTarget(path, format string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	candidate := base + "." + format
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d.%s", base, i, format)
	}
}

// withheldFinish suppresses the batch-finished event so the caller can emit
// it once the deferred conversion pass has settled the final output paths.
type withheldFinish struct {
	batch.Observer
}

func (withheldFinish) BatchFinished(batch.Report) {}

// plan turns the request URLs into batch targets and picks the shared output
// directory. A single playlist URL is expanded into one target per entry.
func (d *Downloader) plan(ctx context.Context, req Request, kind ytdl.MediaKind) ([]batch.Target, string, bool, error) {
	base := req.OutputDir
	if base == "" {
		base = d.Config.Downloads.OutputDir
	}
	kindDir := string(kind) + "s"

	if len(req.URLs) == 1 && ytdl.IsPlaylistURL(req.URLs[0]) {
		pl, err := d.Lister.Playlist(ctx, req.URLs[0])
		if err != nil {
			return nil, "", false, err
		}
		if len(pl.Entries) == 0 {
			return nil, "", false, batch.NewError(batch.KindNotAvailable, "playlist %s has no entries", req.URLs[0])
		}

		dir := filepath.Join(base, "playlist", kindDir)
		if d.Config.Downloads.Playlist.CreateSubfolders {
			dir = outpath.PlaylistDir(base, kindDir, pl.Title)
		}
		targets := make([]batch.Target, 0, len(pl.Entries))
		for _, e := range pl.Entries {
			name := e.Title
			if name == "" {
				name = e.ID
			}
			targets = append(targets, batch.Target{
				Source:  e.URL,
				Name:    name,
				ExtHint: defaultExt(kind, d.Config),
			})
		}
		return targets, dir, true, nil
	}

	targets := make([]batch.Target, 0, len(req.URLs))
	for _, u := range req.URLs {
		targets = append(targets, batch.Target{
			Source:  u,
			Name:    nameSeed(u),
			ExtHint: defaultExt(kind, d.Config),
		})
	}
	return targets, filepath.Join(base, kindDir), false, nil
}

// execute builds the per-item operation: fetch the media, re-resolve the
// destination against the real title, then either move the file into place or
// transcode it into the requested container.
func (d *Downloader) execute(kind ytdl.MediaKind, req Request) batch.ExecuteFunc {
	return func(ctx context.Context, item *batch.WorkItem) batch.Outcome {
		start := time.Now()

		res, err := d.Fetcher.Fetch(ctx, item.Source, ytdl.Spec{Kind: kind, Resolution: req.Resolution})
		if err != nil {
			return batch.Failure(item.ID, err, time.Since(start))
		}
		if d.Config.General.AutoCleanup {
			defer os.RemoveAll(res.TempDir)
		}

		fetchedExt := strings.TrimPrefix(filepath.Ext(res.Path), ".")
		finalExt := item.TargetFormat
		if finalExt == "" {
			finalExt = fetchedExt
		}
		path, err := item.Repath(res.Title, finalExt)
		if err != nil {
			if isCollision(err) {
				return batch.Failure(item.ID, batch.WrapError(batch.KindPathCollision, err, "no free output path for %q", res.Title), time.Since(start))
			}
			return batch.Failure(item.ID, batch.WrapError(batch.KindIO, err, "assign output path for %q", res.Title), time.Since(start))
		}

		if finalExt == fetchedExt {
			if err := fsio.Move(res.Path, path); err != nil {
				return batch.Failure(item.ID, batch.WrapError(batch.KindIO, err, "place downloaded file"), time.Since(start))
			}
			return batch.Success(item.ID, path, time.Since(start))
		}

		if err := d.Transcoder.Transcode(ctx, res.Path, path, finalExt, d.transcodeOptions(kind)); err != nil {
			return batch.Failure(item.ID, err, time.Since(start))
		}
		return batch.Success(item.ID, path, time.Since(start))
	}
}

func (d *Downloader) transcodeOptions(kind ytdl.MediaKind) ffmpeg.Options {
	conv := d.Config.Conversion
	if kind == ytdl.MediaAudio {
		return ffmpeg.Options{
			AudioCodec:   conv.Audio.DefaultCodec,
			AudioBitrate: conv.Audio.Bitrate,
		}
	}
	return ffmpeg.Options{
		VideoCodec:   conv.Video.DefaultCodec,
		AudioCodec:   conv.Audio.DefaultCodec,
		AudioBitrate: conv.Audio.Bitrate,
	}
}

func (d *Downloader) resolver() batch.PathResolver {
	naming := d.Config.General.Naming
	return outpath.New(outpath.Options{
		AddTimestamp:  naming.AddTimestamp,
		Sanitize:      naming.SanitizeFilenames,
		MaxStemLength: naming.MaxFilenameLength,
	})
}

func allowedFormats(kind ytdl.MediaKind) []string {
	if kind == ytdl.MediaAudio {
		return mediafmt.Aliases(mediafmt.KindAudio)
	}
	return mediafmt.Aliases(mediafmt.KindVideo)
}

func formatAllowed(format string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(format, a) {
			return true
		}
	}
	return false
}

func defaultExt(kind ytdl.MediaKind, cfg config.Config) string {
	if kind == ytdl.MediaAudio {
		return cfg.Downloads.Audio.Format
	}
	return cfg.Downloads.Video.Format
}

func isCollision(err error) bool {
	return errors.Is(err, outpath.ErrCollision)
}

// nameSeed derives a provisional file stem from a watch URL. The engine's
// reported title replaces it before the file lands.
func nameSeed(url string) string {
	if i := strings.Index(url, "v="); i >= 0 {
		id := url[i+2:]
		if j := strings.IndexAny(id, "&#"); j >= 0 {
			id = id[:j]
		}
		if id != "" {
			return id
		}
	}
	if i := strings.Index(url, "youtu.be/"); i >= 0 {
		id := url[i+len("youtu.be/"):]
		if j := strings.IndexAny(id, "?&#"); j >= 0 {
			id = id[:j]
		}
		if id != "" {
			return id
		}
	}
	return "download"
}
