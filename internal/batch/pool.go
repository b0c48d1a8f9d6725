package batch

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWorkers is the concurrency budget when the caller does not set
	// one. Values beyond single digits tend to yield diminishing or negative
	// returns because the workers share network and disk bandwidth.
	DefaultWorkers = 3

	// DefaultGrace bounds how long the pool waits for an in-flight operation
	// after its deadline fires or the batch is cancelled.
	DefaultGrace = 5 * time.Second
)

type PoolOptions struct {
	Workers     int
	ItemTimeout time.Duration // zero means no per-item deadline
	Grace       time.Duration
	Observer    Observer
}

// runPool executes every item with at most Workers operations in flight.
// Each item yields exactly one outcome: panics become Failed(internal),
// deadline overruns become Failed(timeout), and items never dispatched after
// a cancellation are recorded as Skipped. Only a collector contract
// violation aborts the pool.
func runPool(ctx context.Context, items []*WorkItem, execute ExecuteFunc, opts PoolOptions, collector *Collector) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	jobCh := make(chan *WorkItem)
	var wg sync.WaitGroup
	var fatalMu sync.Mutex
	var fatalErr error
	setFatal := func(err error) {
		if err == nil {
			return
		}
		fatalMu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		fatalMu.Unlock()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobCh {
				obs.ItemStarted(it)
				out := runOne(ctx, it, execute, opts.ItemTimeout, grace)
				if err := collector.Record(out); err != nil {
					setFatal(err)
					continue
				}
				obs.ItemFinished(it, out)
			}
		}()
	}

	skippedFrom := len(items)
dispatch:
	for i, it := range items {
		select {
		case <-ctx.Done():
			skippedFrom = i
			break dispatch
		case jobCh <- it:
		}
	}
	close(jobCh)
	wg.Wait()

	for _, it := range items[skippedFrom:] {
		if err := collector.Record(skippedOutcome(it.ID)); err != nil {
			setFatal(err)
		}
	}

	fatalMu.Lock()
	defer fatalMu.Unlock()
	return fatalErr
}

// runOne wraps one execute call with panic isolation and the per-item
// deadline. The executor goroutine is abandoned after the grace period; its
// context is cancelled so the engine call can wind down on its own.
func runOne(ctx context.Context, it *WorkItem, execute ExecuteFunc, timeout, grace time.Duration) Outcome {
	start := time.Now()

	itemCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		itemCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		itemCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- failedOutcome(it.ID, NewError(KindInternal, "unexpected failure executing item %d: %v", it.ID, r), time.Since(start))
			}
		}()
		done <- execute(itemCtx, it)
	}()

	select {
	case out := <-done:
		return out
	case <-itemCtx.Done():
	}

	// deadline or cancellation fired; allow a bounded grace for the engine
	// call to finish before the slot is given up
	select {
	case out := <-done:
		return out
	case <-time.After(grace):
	}

	// the slot is given up; freeze the item's destination so the orphaned
	// operation cannot re-reserve a path after cleanup
	it.abandon()

	elapsed := time.Since(start)
	if timeout > 0 && elapsed >= timeout {
		return failedOutcome(it.ID, NewError(KindTimeout, "item %d exceeded the %s deadline", it.ID, timeout), elapsed)
	}
	return failedOutcome(it.ID, NewError(KindTimeout, "item %d abandoned after batch cancellation", it.ID), elapsed)
}
