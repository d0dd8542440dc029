package tui

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer is a goroutine-safe bytes.Buffer for spinner output capture.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerStartStop(t *testing.T) {
	var buf syncBuffer
	s := NewTerminalSpinner(&buf)

	s.Start(context.Background(), "tagging release")
	time.Sleep(3 * SpinnerInterval)
	s.Stop()

	out := buf.String()
	assert.Contains(t, out, "tagging release")
	assert.Contains(t, out, "\r\033[K")
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf syncBuffer
	s := NewTerminalSpinner(&buf)

	s.Start(context.Background(), "pushing")
	s.Stop()
	s.Stop()
}

func TestSpinnerStopBeforeStart(t *testing.T) {
	s := NewTerminalSpinner(&syncBuffer{})
	s.Stop()
}

func TestSpinnerContextCancelClearsLine(t *testing.T) {
	var buf syncBuffer
	s := NewTerminalSpinner(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx, "publishing")
	time.Sleep(2 * SpinnerInterval)
	cancel()
	time.Sleep(2 * SpinnerInterval)

	assert.Contains(t, buf.String(), "\r\033[K")
}

func TestStopWithOutcome(t *testing.T) {
	var buf syncBuffer
	s := NewTerminalSpinner(&buf)
	s.Start(context.Background(), "creating release")
	s.StopWithSuccess("released 1.3.0")

	assert.Contains(t, buf.String(), "✓ released 1.3.0")

	var buf2 syncBuffer
	s2 := NewTerminalSpinner(&buf2)
	s2.Start(context.Background(), "publishing")
	s2.StopWithError("publish failed")
	assert.Contains(t, buf2.String(), "✗ publish failed")
}

func TestTruncateToWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{name: "fits", input: "short", width: 10, expected: "short"},
		{name: "truncated", input: "a very long spinner message", width: 10, expected: "a very ..."},
		{name: "tiny width", input: "anything", width: 3, expected: "..."},
		{name: "exact fit", input: "1234567890", width: 10, expected: "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateToWidth(tt.input, tt.width))
		})
	}
}

func TestFormatElapsedTime(t *testing.T) {
	assert.Equal(t, "(45s elapsed)", formatElapsedTime(45*time.Second))
	assert.Equal(t, "(2m 5s elapsed)", formatElapsedTime(2*time.Minute+5*time.Second))
}

func TestHasColorSupport(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")

	t.Run("no_color disables", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		assert.False(t, HasColorSupport())
	})

	t.Run("dumb terminal disables", func(t *testing.T) {
		t.Setenv("TERM", "dumb")
		assert.False(t, HasColorSupport())
	})
}
