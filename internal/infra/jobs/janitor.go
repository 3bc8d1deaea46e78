// Package jobs holds scheduled maintenance for the durable outbox.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// OutboxMaintainer is implemented by the Mongo and Postgres outbox stores.
type OutboxMaintainer interface {
	PruneSent(ctx context.Context, before time.Time) (int64, error)
	ReleaseStale(ctx context.Context, before time.Time) (int64, error)
}

// Janitor drops delivered outbox records after Retention and hands claims
// older than ClaimTimeout back to the workers.
type Janitor struct {
	Outbox       OutboxMaintainer
	Retention    time.Duration
	ClaimTimeout time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

var ErrNoOutbox = errors.New("jobs: janitor has no outbox")

func (j *Janitor) RunOnce(ctx context.Context) error {
	if j.Outbox == nil {
		return ErrNoOutbox
	}
	now := j.now()
	var errList []error

	if j.ClaimTimeout > 0 {
		released, err := j.Outbox.ReleaseStale(ctx, now.Add(-j.ClaimTimeout))
		if err != nil {
			errList = append(errList, err)
		} else if released > 0 {
			j.logger().Warn("released stale outbox claims", "count", released)
		}
	}
	if j.Retention > 0 {
		pruned, err := j.Outbox.PruneSent(ctx, now.Add(-j.Retention))
		if err != nil {
			errList = append(errList, err)
		} else if pruned > 0 {
			j.logger().Info("pruned sent outbox records", "count", pruned)
		}
	}
	return errors.Join(errList...)
}

// Schedule registers RunOnce on c. Runs use ctx, so cancelling it aborts a run
// in flight; the caller owns c.Start and c.Stop.
func (j *Janitor) Schedule(ctx context.Context, c *cron.Cron, schedule string) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		if ctx.Err() != nil {
			return
		}
		if err := j.RunOnce(ctx); err != nil {
			j.logger().Error("outbox janitor failed", "error", err)
		}
	})
}

// Start schedules the janitor on its own cron and runs it until ctx is done.
func (j *Janitor) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := j.Schedule(ctx, c, schedule); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func (j *Janitor) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *Janitor) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
