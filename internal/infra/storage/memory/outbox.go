package memory

import (
	"context"
	"sync"

	appoutbox "lodging/internal/app/outbox"
	"lodging/internal/app/uow"
)

// Outbox queues event records of committed units and hands them to a
// subscriber on Flush. Records added outside a memory unit are queued at once.
type Outbox struct {
	mu         sync.Mutex
	pending    []appoutbox.EventRecord
	subscriber appoutbox.Subscriber
	delivered  int
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// Subscribe sets the receiver of flushed records.
func (o *Outbox) Subscribe(s appoutbox.Subscriber) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscriber = s
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mem, ok := unit.(*Unit); ok {
			return mem.addEvent(record)
		}
	}
	o.enqueue([]appoutbox.EventRecord{record})
	return nil
}

func (o *Outbox) enqueue(records []appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, records...)
}

// Flush delivers queued records in commit order. Records a subscriber fails
// on are dropped after the first error is reported.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	subscriber := o.subscriber
	o.delivered += len(batch)
	o.mu.Unlock()

	if subscriber == nil {
		return nil
	}
	var first error
	for _, rec := range batch {
		if err := subscriber.Handle(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Pending reports records waiting for the next Flush.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.pending))
	copy(out, o.pending)
	return out
}

// Delivered counts records flushed so far.
func (o *Outbox) Delivered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.delivered
}

var _ appoutbox.Outbox = (*Outbox)(nil)
