package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	pruneBefore   time.Time
	releaseBefore time.Time
	pruneErr      error
	releaseErr    error
	calls         int
}

func (f *fakeOutbox) PruneSent(_ context.Context, before time.Time) (int64, error) {
	f.calls++
	f.pruneBefore = before
	return 3, f.pruneErr
}

func (f *fakeOutbox) ReleaseStale(_ context.Context, before time.Time) (int64, error) {
	f.calls++
	f.releaseBefore = before
	return 1, f.releaseErr
}

var errStore = errors.New("store down")

func fixedNow() time.Time {
	return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
}

func TestRunOnceUsesCutoffs(t *testing.T) {
	box := &fakeOutbox{}
	j := &Janitor{Outbox: box, Retention: 72 * time.Hour, ClaimTimeout: 5 * time.Minute, Now: fixedNow}

	require.NoError(t, j.RunOnce(context.Background()))
	assert.Equal(t, fixedNow().Add(-72*time.Hour), box.pruneBefore)
	assert.Equal(t, fixedNow().Add(-5*time.Minute), box.releaseBefore)
}

func TestRunOnceSkipsDisabledSteps(t *testing.T) {
	box := &fakeOutbox{}
	j := &Janitor{Outbox: box, Retention: time.Hour, Now: fixedNow}

	require.NoError(t, j.RunOnce(context.Background()))
	assert.Equal(t, 1, box.calls)
	assert.True(t, box.releaseBefore.IsZero())
}

func TestRunOnceKeepsPruningWhenReleaseFails(t *testing.T) {
	box := &fakeOutbox{releaseErr: errStore}
	j := &Janitor{Outbox: box, Retention: time.Hour, ClaimTimeout: time.Minute, Now: fixedNow}

	err := j.RunOnce(context.Background())
	assert.ErrorIs(t, err, errStore)
	assert.Equal(t, 2, box.calls)
}

func TestRunOnceWithoutOutbox(t *testing.T) {
	assert.ErrorIs(t, (&Janitor{}).RunOnce(context.Background()), ErrNoOutbox)
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	j := &Janitor{Outbox: &fakeOutbox{}}
	_, err := j.Schedule(context.Background(), cron.New(), "every tuesday")
	assert.Error(t, err)

	id, err := j.Schedule(context.Background(), cron.New(), "@hourly")
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestStartReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- (&Janitor{Outbox: &fakeOutbox{}}).Start(ctx, "@every 1h")
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
