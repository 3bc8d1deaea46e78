package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker publishes committed outbox records as CloudEvents, one topic per
// event family (reservation.events.v1, calendar.events.v1). Records are keyed
// by aggregate so the events of one reservation or room stay ordered.
type Worker struct {
	Source      Source
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	SourceURI   string
	ID          string
	Backoff     []time.Duration
	BatchSize   int
	Logger      *slog.Logger
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Source == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger().Warn("outbox claim failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// Drain publishes due records until none is left or the batch is full and
// reports how many were handled.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	handled := 0
	for handled < w.batchSize() {
		ok, err := w.processOnce(ctx)
		if err != nil || !ok {
			return handled, err
		}
		handled++
	}
	return handled, nil
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	msg, err := w.Source.Claim(ctx, w.ID)
	if err != nil || msg == nil {
		return false, err
	}
	topic := w.topicFor(msg.Name)
	payload, headers, err := w.formatPayload(msg)
	if err != nil {
		w.fail(ctx, msg, err)
		return true, nil
	}
	if err := w.Producer.Publish(ctx, topic, msg.Aggregate, payload, headers); err != nil {
		w.fail(ctx, msg, err)
		return true, nil
	}
	return true, w.Source.MarkSent(ctx, msg.ID)
}

func (w *Worker) fail(ctx context.Context, msg *Message, cause error) {
	w.logger().Warn("outbox publish failed", "id", msg.ID, "event", msg.Name, "attempts", msg.Attempts+1, "error", cause)
	if err := w.Source.MarkFailed(ctx, msg.ID, w.nextRetry(msg.Attempts), cause.Error()); err != nil {
		w.logger().Error("outbox mark failed", "id", msg.ID, "error", err)
	}
}

func (w *Worker) formatPayload(msg *Message) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(msg.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              msg.ID,
		"type":            msg.Name + ".v1",
		"source":          w.source(),
		"subject":         msg.Aggregate,
		"time":            msg.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := msg.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) topicFor(name string) string {
	return Topic(w.TopicPrefix, name)
}

// Topic maps an event name to its family topic.
func Topic(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 100
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.SourceURI != "" {
		return w.SourceURI
	}
	return "app://lodging"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
