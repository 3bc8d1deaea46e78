package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/IBM/sarama"

	appoutbox "lodging/internal/app/outbox"
)

var ErrNotCloudEvent = errors.New("kafka: message is not a structured cloud event")

type cloudEvent struct {
	SpecVersion string          `json:"specversion"`
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	Subject     string          `json:"subject"`
	Time        time.Time       `json:"time"`
	Data        json.RawMessage `json:"data"`
}

// DecodeEvent turns a structured CloudEvent published by the outbox worker
// back into an event record. The ".v1" type suffix is dropped.
func DecodeEvent(msg *sarama.ConsumerMessage) (appoutbox.EventRecord, error) {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return appoutbox.EventRecord{}, err
	}
	if evt.SpecVersion == "" || evt.Type == "" {
		return appoutbox.EventRecord{}, ErrNotCloudEvent
	}
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		if h == nil {
			continue
		}
		headers[string(h.Key)] = string(h.Value)
	}
	aggregate := evt.Subject
	if aggregate == "" {
		aggregate = string(msg.Key)
	}
	return appoutbox.EventRecord{
		ID:         evt.ID,
		Name:       strings.TrimSuffix(evt.Type, ".v1"),
		Payload:    evt.Data,
		OccurredAt: evt.Time.UTC(),
		Aggregate:  aggregate,
		Headers:    headers,
	}, nil
}

// SubscriberHandler feeds decoded events to an outbox subscriber. Messages
// that are not cloud events are skipped.
type SubscriberHandler struct {
	Subscriber appoutbox.Subscriber
}

func (h SubscriberHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	rec, err := DecodeEvent(msg)
	if err != nil {
		if errors.Is(err, ErrNotCloudEvent) {
			return nil
		}
		return err
	}
	return h.Subscriber.Handle(ctx, rec)
}

var _ MessageHandler = SubscriberHandler{}
