package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	calls atomic.Int32
	err   error
}

func (f *fakePurger) PurgeExpiredGuests(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sweep without deadline")
	}
	return 2, f.err
}

func TestGuestSweeper_Sweep(t *testing.T) {
	p := &fakePurger{}
	s := NewGuestSweeper(p, "@every 1h")

	s.Sweep()
	p.err = errors.New("store unavailable")
	s.Sweep()

	assert.Equal(t, int32(2), p.calls.Load())
}

func TestGuestSweeper_RunsOnSchedule(t *testing.T) {
	p := &fakePurger{}
	s := NewGuestSweeper(p, "@every 1s")
	require.NoError(t, s.Run())

	require.Eventually(t, func() bool { return p.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestGuestSweeper_InvalidSpec(t *testing.T) {
	s := NewGuestSweeper(&fakePurger{}, "every now and then")

	assert.Error(t, s.Run())
}
