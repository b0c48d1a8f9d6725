// Package batch turns one user request into a set of independent work items,
// executes them under a bounded concurrency budget, and aggregates a
// deterministic report.
package batch

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Target is one logical input to a batch: a URL for downloads or a resolved
// file path for conversions. Name seeds the output file stem; ExtHint seeds
// the pre-flight extension when no target format is requested.
type Target struct {
	Source  string
	Name    string
	ExtHint string
}

// PathResolver is the slice of the output path resolver the batch needs:
// reserving a unique destination before execution and swapping it when the
// engine settles on a different name or extension.
type PathResolver interface {
	Resolve(dir, name, ext string) (string, error)
	Replace(oldPath, dir, name, ext string) (string, error)
}

// WorkItem is one unit of work. IDs are dense and 0-based within a batch;
// the output path is unique within the batch once assigned. The path is
// mutable through Repath while an abandoned operation may still be winding
// down, so reads and writes go through the mutex.
type WorkItem struct {
	ID           int
	Source       string
	Name         string
	TargetFormat string
	OutputDir    string

	mu         sync.Mutex
	outputPath string
	abandoned  bool
	resolver   PathResolver
}

// OutputPath returns the currently assigned destination path.
func (it *WorkItem) OutputPath() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.outputPath
}

func (it *WorkItem) setOutputPath(p string) {
	it.mu.Lock()
	it.outputPath = p
	it.mu.Unlock()
}

// abandon marks the item as given up by the pool. Later Repath calls fail, so
// an orphaned operation can no longer re-reserve a destination after the
// item's timeout outcome has been recorded and its artifacts cleaned up.
func (it *WorkItem) abandon() {
	it.mu.Lock()
	it.abandoned = true
	it.mu.Unlock()
}

// Repath re-resolves the item's destination once the engine has reported the
// real title or final extension. The previous reservation is released so the
// batch-wide uniqueness invariant holds.
func (it *WorkItem) Repath(name, ext string) (string, error) {
	if name == "" {
		name = it.Name
	}
	it.mu.Lock()
	if it.abandoned {
		it.mu.Unlock()
		return "", NewError(KindTimeout, "item %d was abandoned, destination is frozen", it.ID)
	}
	old := it.outputPath
	it.mu.Unlock()

	p, err := it.resolver.Replace(old, it.OutputDir, name, ext)
	if err != nil {
		return "", err
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	if it.abandoned {
		return "", NewError(KindTimeout, "item %d was abandoned, destination is frozen", it.ID)
	}
	it.outputPath = p
	return p, nil
}

// Outcome is the terminal result of one work item. Exactly one of OutputPath
// and Err is set, except for Skipped items which carry neither.
type Outcome struct {
	ItemID     int           `json:"item_id"`
	Status     Status        `json:"status"`
	OutputPath string        `json:"output_path,omitempty"`
	Err        *Error        `json:"-"`
	ErrKind    ErrorKind     `json:"error_kind,omitempty"`
	ErrMessage string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// Success and Failure build terminal outcomes for execute closures.
func Success(id int, path string, d time.Duration) Outcome {
	return successOutcome(id, path, d)
}

func Failure(id int, err error, d time.Duration) Outcome {
	return failedOutcome(id, AsError(err), d)
}

func successOutcome(id int, path string, d time.Duration) Outcome {
	return Outcome{ItemID: id, Status: StatusSuccess, OutputPath: path, Duration: d}
}

func failedOutcome(id int, err *Error, d time.Duration) Outcome {
	return Outcome{
		ItemID:     id,
		Status:     StatusFailed,
		Err:        err,
		ErrKind:    err.Kind,
		ErrMessage: err.Message,
		Duration:   d,
	}
}

func skippedOutcome(id int) Outcome {
	return Outcome{ItemID: id, Status: StatusSkipped}
}

// Report is the frozen aggregate for one batch, outcomes sorted by item ID
// regardless of completion order.
type Report struct {
	BatchID   string        `json:"batch_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Outcomes  []Outcome     `json:"outcomes"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// ExecuteFunc runs one work item and returns its terminal outcome. Download
// and conversion call sites supply their own closure; the pool stays generic
// over it.
type ExecuteFunc func(ctx context.Context, item *WorkItem) Outcome
