package plugin

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Hook is a side-channel command invoked with extra arguments, such as a
// viewer that draws a gesture string.
type Hook struct {
	argv    []string
	timeout time.Duration
}

// NewHook parses command into argv. It returns nil for an empty command.
func NewHook(command string, timeout time.Duration) *Hook {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil
	}
	return &Hook{argv: argv, timeout: timeout}
}

// Run executes the hook with args appended and waits for it to exit.
func (h *Hook) Run(ctx context.Context, args ...string) error {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	argv := append(append([]string{}, h.argv[1:]...), args...)
	cmd := exec.CommandContext(ctx, h.argv[0], argv...)
	cmd.WaitDelay = waitDelay
	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, h.argv[0])
	}
	if err != nil {
		return fmt.Errorf("hook %s failed: %w, output: %s", h.argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// String returns the hook command line.
func (h *Hook) String() string {
	return strings.Join(h.argv, " ")
}
