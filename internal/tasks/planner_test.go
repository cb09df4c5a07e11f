package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"defense_queue/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResetter struct {
	calls  atomic.Int32
	policy atomic.Value
	err    error
}

func (f *fakeResetter) ResetHighWater(_ context.Context, policy models.HighWaterReset) (int, error) {
	f.calls.Add(1)
	f.policy.Store(policy)
	return 1, f.err
}

func TestResetDailyHighWater(t *testing.T) {
	r := &fakeResetter{}
	ResetDailyHighWater(context.Background(), r, slog.Default())
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, models.HighWaterDaily, r.policy.Load())

	failing := &fakeResetter{err: errors.New("db down")}
	ResetDailyHighWater(context.Background(), failing, slog.Default())
	assert.Equal(t, int32(1), failing.calls.Load())
}

func TestInitScheduler(t *testing.T) {
	r := &fakeResetter{}
	c, err := InitScheduler(context.Background(), "* * * * * *", r, slog.Default())
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestInitSchedulerRejectsBadExpression(t *testing.T) {
	_, err := InitScheduler(context.Background(), "каждый день", &fakeResetter{}, slog.Default())
	assert.Error(t, err)
}
