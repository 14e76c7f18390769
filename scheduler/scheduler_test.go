package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSchedulerFiresDueCallback(t *testing.T) {
	s := New(10*time.Millisecond, zerolog.Nop())
	var calls int64
	s.Register("test", 10*time.Millisecond, func(ctx context.Context, firedAt time.Time) {
		atomic.AddInt64(&calls, 1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(2))
}

func TestSchedulerSkipsOverlappingInvocations(t *testing.T) {
	s := New(5*time.Millisecond, zerolog.Nop())
	var running int32
	var maxConcurrent int32

	s.Register("slow", 5*time.Millisecond, func(ctx context.Context, firedAt time.Time) {
		n := atomic.AddInt32(&running, 1)
		if n > atomic.LoadInt32(&maxConcurrent) {
			atomic.StoreInt32(&maxConcurrent, n)
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&running, -1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxConcurrent))
}
