package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lodging/internal/app/middleware"
)

// IdempotencyStore keeps records in app_idempotency. Expired rows are ignored
// on read and pruned on write.
type IdempotencyStore struct {
	DB  *gorm.DB
	TTL time.Duration
}

func (s IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	q := s.DB.WithContext(ctx).Where("key = ?", key)
	if s.TTL > 0 {
		q = q.Where("created_at > ?", time.Now().UTC().Add(-s.TTL))
	}
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	rec := middleware.IdempotencyRecord{
		Key:        row.Key,
		Command:    row.Command,
		Payload:    row.Payload,
		Error:      row.Error,
		ErrorKind:  row.ErrorKind,
		ErrorCode:  row.ErrorCode,
		OccurredAt: row.OccurredAt.UTC(),
	}
	if len(row.ErrorDates) > 0 {
		if err := json.Unmarshal(row.ErrorDates, &rec.ErrorDates); err != nil {
			return middleware.IdempotencyRecord{}, false, err
		}
	}
	return rec, true, nil
}

func (s IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	var dates []byte
	if len(rec.ErrorDates) > 0 {
		encoded, err := json.Marshal(rec.ErrorDates)
		if err != nil {
			return err
		}
		dates = encoded
	}
	now := time.Now().UTC()
	row := idempotencyModel{
		Key:        rec.Key,
		Command:    rec.Command,
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorKind:  rec.ErrorKind,
		ErrorCode:  rec.ErrorCode,
		ErrorDates: dates,
		OccurredAt: rec.OccurredAt.UTC(),
		CreatedAt:  now,
	}
	db := s.DB.WithContext(ctx)
	if s.TTL > 0 {
		if err := db.Where("created_at <= ?", now.Add(-s.TTL)).Delete(&idempotencyModel{}).Error; err != nil {
			return err
		}
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

var _ middleware.IdempotencyStore = IdempotencyStore{}
