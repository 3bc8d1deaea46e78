package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testEvent struct{ id string }

func (e testEvent) EventName() string     { return "test.happened" }
func (e testEvent) AggregateID() string   { return e.id }
func (e testEvent) OccurredAt() time.Time { return time.Time{} }

func TestRecorderDrain(t *testing.T) {
	var r EventRecorder
	r.Record(nil)
	r.Record(testEvent{id: "a"})
	r.Record(testEvent{id: "b"})

	pending := r.PendingEvents()
	assert.Len(t, pending, 2)

	drained := r.Drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].AggregateID())
	assert.Empty(t, r.PendingEvents())
}
