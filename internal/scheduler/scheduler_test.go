package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler(t *testing.T) {
	t.Run("rejects invalid spec", func(t *testing.T) {
		s := New(zerolog.Nop())
		assert.Error(t, s.Add("every now and then", func(context.Context) {}))
	})

	t.Run("skips overlapping ticks and cancels on stop", func(t *testing.T) {
		s := New(zerolog.Nop())
		var started atomic.Int32
		cancelled := make(chan struct{})

		require.NoError(t, s.Add("@every 1s", func(ctx context.Context) {
			if started.Add(1) > 1 {
				return
			}
			<-ctx.Done()
			close(cancelled)
		}))
		s.Start()

		// The first run blocks past several ticks; none may start meanwhile.
		time.Sleep(3500 * time.Millisecond)
		assert.Equal(t, int32(1), started.Load())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
		<-cancelled
	})
}
