package batch

import (
	"testing"
	"time"
)

func TestCollector_RecordExactlyOnce(t *testing.T) {
	c := NewCollector()
	if err := c.Record(successOutcome(0, "/out/a.mp4", time.Millisecond)); err != nil {
		t.Fatalf("first record: %v", err)
	}
	err := c.Record(failedOutcome(0, NewError(KindNetwork, "boom"), time.Millisecond))
	if err == nil {
		t.Fatal("duplicate record must be rejected")
	}
	if KindOf(err) != KindInternal {
		t.Errorf("duplicate record kind = %v, want internal", KindOf(err))
	}
}

func TestCollector_FinalizeSortsByID(t *testing.T) {
	c := NewCollector()
	for _, id := range []int{3, 0, 2, 1} {
		if err := c.Record(successOutcome(id, "/out", 0)); err != nil {
			t.Fatal(err)
		}
	}
	outs, err := c.Finalize(4)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	for i, o := range outs {
		if o.ItemID != i {
			t.Errorf("outcome %d has id %d", i, o.ItemID)
		}
	}
}

func TestCollector_FinalizeRejectsIncomplete(t *testing.T) {
	c := NewCollector()
	if err := c.Record(successOutcome(0, "/out", 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Finalize(2); err == nil {
		t.Error("finalize with a missing id must fail")
	}
}
