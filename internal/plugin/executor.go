package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait keeps reading output after the plugin is
// killed, since grandchildren may hold the pipes open.
const waitDelay = time.Second

// Executor runs plugins with a per-call timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor. A zero timeout only honours the caller's
// context.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Execute sends req to the plugin on stdin and parses its stdout as a
// Response.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, plugin.Manifest.Name, e.timeout)
	}
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", err, stderr.String())
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, stdout.String())
	}

	return &response, nil
}

// Call executes the plugin and returns the response data, turning an
// unsuccessful response into ErrFailed.
func (e *Executor) Call(ctx context.Context, plugin *Plugin, req *Request) (json.RawMessage, error) {
	resp, err := e.Execute(ctx, plugin, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrFailed, resp.Error)
	}
	return resp.Data, nil
}
