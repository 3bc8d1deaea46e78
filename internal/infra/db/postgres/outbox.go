package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "lodging/internal/app/outbox"
	infraoutbox "lodging/internal/infra/outbox"
)

// Outbox is the app_outbox table. Add joins the transaction of the unit bound
// to ctx, so records commit with the write that produced them.
type Outbox struct {
	DB *gorm.DB
}

func (o Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:            record.ID,
		Name:          record.Name,
		Payload:       record.Payload,
		OccurredAt:    record.OccurredAt.UTC(),
		Aggregate:     record.Aggregate,
		Headers:       headers,
		State:         infraoutbox.StateNew,
		NextAttemptAt: time.Now().UTC(),
	}
	return txFrom(ctx, o.DB).Create(&row).Error
}

// Flush is a no-op: the worker publishes committed records.
func (o Outbox) Flush(context.Context) error {
	return nil
}

// Claim takes the oldest due record. SKIP LOCKED lets several workers drain
// the table without waiting on each other.
func (o Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	var claimed *infraoutbox.Message
	err := o.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var row outboxModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("state IN ? AND next_attempt_at <= ?", []string{infraoutbox.StateNew, infraoutbox.StateFailed}, now).
			Order("next_attempt_at").
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		err = tx.Model(&outboxModel{}).Where("id = ?", row.ID).Updates(map[string]any{
			"state":      infraoutbox.StateClaimed,
			"claimed_by": workerID,
			"claimed_at": now,
		}).Error
		if err != nil {
			return err
		}
		msg, err := row.toMessage()
		if err != nil {
			return err
		}
		msg.State = infraoutbox.StateClaimed
		msg.ClaimedBy = workerID
		msg.ClaimedAt = now
		claimed = msg
		return nil
	})
	return claimed, err
}

func (o Outbox) MarkSent(ctx context.Context, id string) error {
	return o.DB.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).Updates(map[string]any{
		"state":   infraoutbox.StateSent,
		"sent_at": time.Now().UTC(),
	}).Error
}

func (o Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return o.DB.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).Updates(map[string]any{
		"state":           infraoutbox.StateFailed,
		"next_attempt_at": next.UTC(),
		"last_error":      errMsg,
		"attempts":        gorm.Expr("attempts + 1"),
	}).Error
}

// PruneSent deletes records delivered before the cutoff.
func (o Outbox) PruneSent(ctx context.Context, before time.Time) (int64, error) {
	res := o.DB.WithContext(ctx).
		Where("state = ? AND sent_at < ?", infraoutbox.StateSent, before.UTC()).
		Delete(&outboxModel{})
	return res.RowsAffected, res.Error
}

// ReleaseStale hands records claimed before the cutoff back to the workers.
func (o Outbox) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	res := o.DB.WithContext(ctx).Model(&outboxModel{}).
		Where("state = ? AND claimed_at < ?", infraoutbox.StateClaimed, before.UTC()).
		Updates(map[string]any{
			"state":           infraoutbox.StateFailed,
			"next_attempt_at": time.Now().UTC(),
			"last_error":      "claim expired",
		})
	return res.RowsAffected, res.Error
}

func (m outboxModel) toMessage() (*infraoutbox.Message, error) {
	headers := map[string]string{}
	if len(m.Headers) > 0 {
		if err := json.Unmarshal(m.Headers, &headers); err != nil {
			return nil, err
		}
	}
	return &infraoutbox.Message{
		ID:          m.ID,
		Name:        m.Name,
		Payload:     m.Payload,
		OccurredAt:  m.OccurredAt.UTC(),
		Aggregate:   m.Aggregate,
		Headers:     headers,
		State:       m.State,
		Attempts:    m.Attempts,
		NextAttempt: m.NextAttemptAt,
		LastError:   m.LastError,
	}, nil
}

var (
	_ appoutbox.Outbox   = Outbox{}
	_ infraoutbox.Source = Outbox{}
)
