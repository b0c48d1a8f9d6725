package batch

// Observer receives batch lifecycle events. Item callbacks fire from worker
// goroutines, so implementations must be safe for concurrent use. Items are
// passed by pointer because a WorkItem carries a lock; observers should only
// read the immutable ID and Name fields.
type Observer interface {
	BatchStarted(batchID string, total int)
	ItemStarted(item *WorkItem)
	ItemFinished(item *WorkItem, out Outcome)
	BatchFinished(report Report)
}

type NopObserver struct{}

func (NopObserver) BatchStarted(string, int)        {}
func (NopObserver) ItemStarted(*WorkItem)           {}
func (NopObserver) ItemFinished(*WorkItem, Outcome) {}
func (NopObserver) BatchFinished(Report)            {}
