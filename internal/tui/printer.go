package tui

import (
	"fmt"
	"io"
	"sync"

	"mmcli/internal/batch"
)

// Printer is the non-interactive observer: one line per finished item plus a
// final summary. Safe for concurrent workers.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

func NewPrinter(w io.Writer, verbose bool) *Printer {
	return &Printer{w: w, verbose: verbose}
}

func (p *Printer) BatchStarted(batchID string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.verbose {
		fmt.Fprintf(p.w, "batch %s: %d items\n", batchID, total)
	}
}

func (p *Printer) ItemStarted(item *batch.WorkItem) {
	if !p.verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "start  %s\n", item.Name)
}

func (p *Printer) ItemFinished(item *batch.WorkItem, out batch.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch out.Status {
	case batch.StatusSuccess:
		fmt.Fprintf(p.w, "ok     %s -> %s\n", item.Name, out.OutputPath)
	case batch.StatusSkipped:
		fmt.Fprintf(p.w, "skip   %s\n", item.Name)
	default:
		fmt.Fprintf(p.w, "failed %s (%s): %s\n", item.Name, out.ErrKind, out.ErrMessage)
	}
}

func (p *Printer) BatchFinished(report batch.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, Summary(report))
}
