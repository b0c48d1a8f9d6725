package batch

import (
	"sort"
	"sync"
)

// Collector accumulates one outcome per item ID. Recording the same ID twice
// is a programming-contract violation and is rejected rather than silently
// overwritten.
type Collector struct {
	mu       sync.Mutex
	outcomes map[int]Outcome
}

func NewCollector() *Collector {
	return &Collector{outcomes: make(map[int]Outcome)}
}

func (c *Collector) Record(out Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.outcomes[out.ItemID]; dup {
		return NewError(KindInternal, "outcome for item %d recorded twice", out.ItemID)
	}
	c.outcomes[out.ItemID] = out
	return nil
}

// Finalize verifies that every ID in [0, total) reached a terminal outcome
// and returns the outcomes sorted by item ID. Completion order under
// concurrency is nondeterministic; the report must not be.
func (c *Collector) Finalize(total int) ([]Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outcomes) != total {
		return nil, NewError(KindInternal, "collector holds %d outcomes, expected %d", len(c.outcomes), total)
	}
	out := make([]Outcome, 0, total)
	for id := 0; id < total; id++ {
		o, ok := c.outcomes[id]
		if !ok {
			return nil, NewError(KindInternal, "no outcome recorded for item %d", id)
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}
