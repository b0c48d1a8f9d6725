package batch

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"mmcli/internal/fsio"
	"mmcli/internal/outpath"
)

// Options describes one batch: shared settings for every work item plus the
// per-item operation supplied by the call site.
type Options struct {
	BatchID      string // assigned when empty
	OutputDir    string
	TargetFormat string   // optional; empty means keep the original container
	AllowFormats []string // allow set for TargetFormat; empty allows any known value
	Workers      int
	ItemTimeout  time.Duration
	Grace        time.Duration
	Resolver     PathResolver
	Observer     Observer
	Execute      ExecuteFunc
}

// Run executes one batch: builds work items from targets, pre-assigns output
// paths, drives the worker pool, and returns the frozen report. A single
// item failing never aborts the batch; Run only returns an error for
// pre-flight validation problems or total infrastructure failure.
func Run(ctx context.Context, targets []Target, opts Options) (*Report, error) {
	if len(targets) == 0 {
		return nil, NewError(KindValidation, "no targets to process")
	}
	if opts.Workers < 1 {
		return nil, NewError(KindValidation, "max workers must be at least 1, got %d", opts.Workers)
	}
	if opts.Execute == nil {
		return nil, NewError(KindValidation, "no execute operation supplied")
	}
	if opts.TargetFormat != "" && !formatAllowed(opts.TargetFormat, opts.AllowFormats) {
		return nil, NewError(KindValidation, "format %q is not supported for this operation", opts.TargetFormat)
	}
	if opts.OutputDir == "" {
		return nil, NewError(KindValidation, "output directory is required")
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = outpath.New(outpath.DefaultOptions())
	}
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	batchID := opts.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}

	// the shared directory is created once up front so concurrent workers
	// never race on MkdirAll; an uncreatable output root aborts the batch
	if err := fsio.Mkdir(opts.OutputDir); err != nil {
		return nil, WrapError(KindIO, err, "output directory is not usable")
	}

	start := time.Now()
	collector := NewCollector()
	items := make([]*WorkItem, 0, len(targets))
	for i, tgt := range targets {
		it := &WorkItem{
			ID:           i,
			Source:       tgt.Source,
			Name:         tgt.Name,
			TargetFormat: opts.TargetFormat,
			OutputDir:    opts.OutputDir,
			resolver:     resolver,
		}
		ext := opts.TargetFormat
		if ext == "" {
			ext = tgt.ExtHint
		}
		path, err := resolver.Resolve(opts.OutputDir, tgt.Name, ext)
		if err != nil {
			// path assignment failures are item-level, not batch-aborting
			kind := KindIO
			if isCollision(err) {
				kind = KindPathCollision
			}
			if recErr := collector.Record(failedOutcome(i, WrapError(kind, err, "assign output path"), 0)); recErr != nil {
				return nil, recErr
			}
			continue
		}
		it.setOutputPath(path)
		items = append(items, it)
	}

	obs.BatchStarted(batchID, len(targets))

	poolOpts := PoolOptions{
		Workers:     opts.Workers,
		ItemTimeout: opts.ItemTimeout,
		Grace:       opts.Grace,
		Observer:    obs,
	}
	if err := runPool(ctx, items, opts.Execute, poolOpts, collector); err != nil {
		return nil, err
	}

	outcomes, err := collector.Finalize(len(targets))
	if err != nil {
		return nil, err
	}

	report := &Report{
		BatchID:  batchID,
		Total:    len(targets),
		Outcomes: outcomes,
		Elapsed:  time.Since(start),
	}
	for _, out := range outcomes {
		switch out.Status {
		case StatusSuccess:
			report.Succeeded++
		case StatusFailed:
			report.Failed++
		case StatusSkipped:
			report.Skipped++
		}
	}

	removeIncompleteArtifacts(items, outcomes)

	obs.BatchFinished(*report)
	return report, nil
}

func formatAllowed(format string, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, a := range allow {
		if a == format {
			return true
		}
	}
	return false
}

func isCollision(err error) bool {
	return errors.Is(err, outpath.ErrCollision)
}

// removeIncompleteArtifacts deletes whatever a failed or skipped item left at
// its resolved output path, so a cancelled half-written file is never
// mistaken for a completed one.
func removeIncompleteArtifacts(items []*WorkItem, outcomes []Outcome) {
	byID := make(map[int]*WorkItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, out := range outcomes {
		if out.Status == StatusSuccess {
			continue
		}
		it, ok := byID[out.ItemID]
		if !ok {
			continue
		}
		// snapshot under the item lock; abandoned operations can no longer
		// move the path underneath us
		path := it.OutputPath()
		if path == "" {
			continue
		}
		_ = os.Remove(path)
	}
}
