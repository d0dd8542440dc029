package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

// safeWriter wraps an io.Writer with mutex protection so the spinner
// animation and step output can share one stream.
type safeWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSafeWriter(w io.Writer) *safeWriter {
	return &safeWriter{w: w}
}

// Write implements io.Writer with mutex protection.
func (sw *safeWriter) Write(p []byte) (n int, err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

// spinnerFrames are the animation frames for the spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"} //nolint:gochecknoglobals // Package-level constant for spinner animation

// SpinnerInterval is the update interval for the spinner animation.
const SpinnerInterval = 100 * time.Millisecond

// ElapsedTimeThreshold is the duration after which elapsed time is shown
// next to the spinner message.
const ElapsedTimeThreshold = 30 * time.Second

// TerminalSpinner provides animated progress indication for pipeline
// steps in unattended terminal runs.
type TerminalSpinner struct {
	w       *safeWriter
	styles  *OutputStyles
	message string
	started time.Time
	done    chan struct{}
	mu      sync.Mutex
	running bool
	stopped bool
}

// NewTerminalSpinner creates a spinner that writes to w.
func NewTerminalSpinner(w io.Writer) *TerminalSpinner {
	return &TerminalSpinner{
		w:      newSafeWriter(w),
		styles: NewOutputStyles(),
	}
}

// Start begins the spinner animation with the given message. Safe to call
// again while running; subsequent calls update the message.
func (s *TerminalSpinner) Start(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	s.started = time.Now()

	if s.running {
		return
	}

	s.running = true
	s.stopped = false
	s.done = make(chan struct{})

	done := s.done
	go s.animate(ctx, done)
}

// Stop stops the spinner animation and clears the line.
func (s *TerminalSpinner) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.running = false
	done := s.done
	s.mu.Unlock()

	close(done)
	_, _ = fmt.Fprint(s.w, "\r\033[K")
}

// StopWithSuccess stops the spinner and displays a success line.
func (s *TerminalSpinner) StopWithSuccess(message string) {
	s.Stop()
	_, _ = fmt.Fprintln(s.w, s.styles.Success.Render("✓ "+message))
}

// StopWithError stops the spinner and displays an error line.
func (s *TerminalSpinner) StopWithError(message string) {
	s.Stop()
	_, _ = fmt.Fprintln(s.w, s.styles.Error.Render("✗ "+message))
}

// StopWithWarning stops the spinner and displays a warning line.
func (s *TerminalSpinner) StopWithWarning(message string) {
	s.Stop()
	_, _ = fmt.Fprintln(s.w, s.styles.Warning.Render("⚠ "+message))
}

func (s *TerminalSpinner) animate(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(SpinnerInterval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			s.mu.Lock()
			wasRunning := s.running && !s.stopped
			if wasRunning {
				s.running = false
				s.stopped = true
			}
			s.mu.Unlock()
			if wasRunning {
				_, _ = fmt.Fprint(s.w, "\r\033[K")
			}
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.running {
				s.mu.Unlock()
				return
			}
			msg := s.message
			if elapsed := time.Since(s.started); elapsed > ElapsedTimeThreshold {
				msg = fmt.Sprintf("%s %s", s.message, formatElapsedTime(elapsed))
			}
			spinnerFrame := s.styles.Info.Render(spinnerFrames[frame%len(spinnerFrames)])

			// Truncate so the line never wraps: frame + space + margin = 4.
			if maxMsgLen := terminalWidth() - 4; maxMsgLen > 0 {
				msg = truncateToWidth(msg, maxMsgLen)
			}
			s.mu.Unlock()

			_, _ = fmt.Fprintf(s.w, "\r\033[K%s %s", spinnerFrame, msg)
			frame++
		}
	}
}

// formatElapsedTime formats a duration for the spinner suffix.
func formatElapsedTime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%ds elapsed)", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("(%dm %ds elapsed)", minutes, seconds)
}

// terminalWidth returns the stderr terminal width, falling back to 80.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stderr.Fd())) //nolint:gosec // G115: file descriptors fit in int on all supported platforms
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// truncateToWidth truncates s to maxWidth runes, appending "..." when
// truncation happens.
func truncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if utf8.RuneCountInString(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxWidth-3]) + "..."
}
