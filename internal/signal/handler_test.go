package signal

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerContextCancellation(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	require.NoError(t, h.Context().Err())
	h.Stop()
	assert.Error(t, h.Context().Err())
}

func TestOnInterruptRunsOnce(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	var count atomic.Int32
	c := h.OnInterrupt(func() { count.Add(1) })

	// Abnormal exit fires the cleanup; later shutdown passes are no-ops.
	c.Run()
	h.RunCleanups()
	h.RunCleanups()

	assert.Equal(t, int32(1), count.Load())
}

func TestOnInterruptDisarm(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	var count atomic.Int32
	c := h.OnInterrupt(func() { count.Add(1) })

	// Window closed normally: nothing may fire afterwards.
	c.Disarm()
	c.Run()
	h.RunCleanups()
	h.handleSignal()

	assert.Equal(t, int32(0), count.Load())
}

func TestSignalFiresCleanupsAndInterrupted(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	var count atomic.Int32
	h.OnInterrupt(func() { count.Add(1) })

	// Simulate signal delivery twice; cleanup must remain idempotent.
	h.handleSignal()
	h.handleSignal()

	select {
	case <-h.Interrupted():
	case <-time.After(time.Second):
		t.Fatal("interrupted channel never closed")
	}

	assert.Equal(t, int32(1), count.Load())
	assert.Error(t, h.Context().Err())
}

func TestRunCleanupsWithoutRegistrations(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	// Must be a no-op, not a panic.
	h.RunCleanups()
}
