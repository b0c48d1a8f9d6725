package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func makeItems(n int) []*WorkItem {
	items := make([]*WorkItem, n)
	for i := range items {
		items[i] = &WorkItem{ID: i, Source: "src", Name: "item"}
	}
	return items
}

func TestPool_EveryItemYieldsOneOutcome(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 8} {
		collector := NewCollector()
		items := makeItems(9)
		execute := func(ctx context.Context, it *WorkItem) Outcome {
			return successOutcome(it.ID, "/out", time.Millisecond)
		}
		if err := runPool(context.Background(), items, execute, PoolOptions{Workers: workers}, collector); err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		outs, err := collector.Finalize(len(items))
		if err != nil {
			t.Fatalf("workers=%d finalize: %v", workers, err)
		}
		if len(outs) != len(items) {
			t.Errorf("workers=%d: %d outcomes", workers, len(outs))
		}
	}
}

func TestPool_ConcurrencyNeverExceedsBudget(t *testing.T) {
	const workers = 3
	var inFlight, peak atomic.Int64
	execute := func(ctx context.Context, it *WorkItem) Outcome {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return successOutcome(it.ID, "/out", 0)
	}

	collector := NewCollector()
	if err := runPool(context.Background(), makeItems(12), execute, PoolOptions{Workers: workers}, collector); err != nil {
		t.Fatal(err)
	}
	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency %d exceeded budget %d", got, workers)
	}
}

func TestPool_PanicBecomesInternalFailure(t *testing.T) {
	execute := func(ctx context.Context, it *WorkItem) Outcome {
		if it.ID == 1 {
			panic("executor blew up")
		}
		return successOutcome(it.ID, "/out", 0)
	}

	collector := NewCollector()
	if err := runPool(context.Background(), makeItems(3), execute, PoolOptions{Workers: 2}, collector); err != nil {
		t.Fatal(err)
	}
	outs, err := collector.Finalize(3)
	if err != nil {
		t.Fatal(err)
	}
	if outs[1].Status != StatusFailed || outs[1].ErrKind != KindInternal {
		t.Errorf("panicked item outcome = %+v, want failed/internal", outs[1])
	}
	if outs[0].Status != StatusSuccess || outs[2].Status != StatusSuccess {
		t.Error("sibling items must not be aborted by a panic")
	}
}

func TestPool_ItemTimeout(t *testing.T) {
	hung := make(chan struct{})
	defer close(hung)
	execute := func(ctx context.Context, it *WorkItem) Outcome {
		if it.ID == 0 {
			<-hung // never returns within the deadline
			return successOutcome(it.ID, "/out", 0)
		}
		return successOutcome(it.ID, "/out", 0)
	}

	collector := NewCollector()
	start := time.Now()
	err := runPool(context.Background(), makeItems(3), execute, PoolOptions{
		Workers:     2,
		ItemTimeout: 50 * time.Millisecond,
		Grace:       20 * time.Millisecond,
	}, collector)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("pool blocked for %s on an unresponsive item", elapsed)
	}

	outs, err := collector.Finalize(3)
	if err != nil {
		t.Fatal(err)
	}
	if outs[0].Status != StatusFailed || outs[0].ErrKind != KindTimeout {
		t.Errorf("hung item outcome = %+v, want failed/timeout", outs[0])
	}
	if outs[1].Status != StatusSuccess || outs[2].Status != StatusSuccess {
		t.Error("batch must complete for the other items")
	}
}

// stubResolver counts Replace calls so tests can tell whether an item managed
// to re-reserve a destination.
type stubResolver struct {
	replaceCalls atomic.Int64
}

func (r *stubResolver) Resolve(dir, name, ext string) (string, error) {
	return dir + "/" + name + "." + ext, nil
}

func (r *stubResolver) Replace(old, dir, name, ext string) (string, error) {
	r.replaceCalls.Add(1)
	return dir + "/" + name + "." + ext, nil
}

func TestPool_AbandonedItemCannotRepath(t *testing.T) {
	res := &stubResolver{}
	it := &WorkItem{ID: 0, Name: "clip", OutputDir: "/out", resolver: res}
	it.setOutputPath("/out/clip.mp4")

	release := make(chan struct{})
	repathErr := make(chan error, 1)
	execute := func(ctx context.Context, item *WorkItem) Outcome {
		<-release
		_, err := item.Repath("Final Title", "mp4")
		repathErr <- err
		return successOutcome(item.ID, item.OutputPath(), 0)
	}

	collector := NewCollector()
	err := runPool(context.Background(), []*WorkItem{it}, execute, PoolOptions{
		Workers:     1,
		ItemTimeout: 20 * time.Millisecond,
		Grace:       10 * time.Millisecond,
	}, collector)
	if err != nil {
		t.Fatal(err)
	}

	// the pool has recorded the timeout; now the orphaned operation resumes
	close(release)
	if rerr := <-repathErr; rerr == nil {
		t.Fatal("repath after abandonment must fail")
	} else if KindOf(rerr) != KindTimeout {
		t.Errorf("repath error kind = %v, want timeout", KindOf(rerr))
	}
	if got := it.OutputPath(); got != "/out/clip.mp4" {
		t.Errorf("destination moved after abandonment: %s", got)
	}
	if res.replaceCalls.Load() != 0 {
		t.Errorf("abandoned item reached the resolver %d times", res.replaceCalls.Load())
	}

	outs, err := collector.Finalize(1)
	if err != nil {
		t.Fatal(err)
	}
	if outs[0].Status != StatusFailed || outs[0].ErrKind != KindTimeout {
		t.Errorf("outcome = %+v, want failed/timeout", outs[0])
	}
}

func TestPool_CancellationSkipsUndispatchedItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int64
	release := make(chan struct{})
	execute := func(ctx context.Context, it *WorkItem) Outcome {
		started.Add(1)
		<-release
		return successOutcome(it.ID, "/out", 0)
	}

	collector := NewCollector()
	done := make(chan error, 1)
	items := makeItems(5)
	go func() {
		done <- runPool(ctx, items, execute, PoolOptions{Workers: 2, Grace: 50 * time.Millisecond}, collector)
	}()

	// wait for both workers to pick up an item, cancel while they are still
	// blocked so the dispatcher must observe the cancellation, then let the
	// in-flight pair finish inside the grace window
	for started.Load() < 2 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-done; err != nil {
		t.Fatal(err)
	}
	outs, err := collector.Finalize(5)
	if err != nil {
		t.Fatal(err)
	}

	counts := map[Status]int{}
	for _, o := range outs {
		counts[o.Status]++
	}
	if counts[StatusSkipped] != 3 {
		t.Errorf("skipped = %d, want 3", counts[StatusSkipped])
	}
	if counts[StatusSuccess]+counts[StatusFailed] != 2 {
		t.Errorf("terminal in-flight outcomes = %d, want 2 (counts %v)", counts[StatusSuccess]+counts[StatusFailed], counts)
	}
}
