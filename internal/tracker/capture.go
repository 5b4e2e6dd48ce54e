package tracker

import (
	"context"
	"io"
	"sync"
	"time"
)

// Capture wraps a Tracker and writes every delivered report to w as replay
// lines, so a live session can be replayed later with ReplayTracker.
type Capture struct {
	Tracker

	mu     sync.Mutex
	w      io.Writer
	origin time.Time
	err    error
}

// NewCapture records reports from tr to w.
func NewCapture(tr Tracker, w io.Writer) *Capture {
	return &Capture{Tracker: tr, w: w}
}

// Update delivers pending reports to h and records them. A write failure
// stops recording and is returned by Err; delivery continues.
func (c *Capture) Update(ctx context.Context, h Handler) error {
	return c.Tracker.Update(ctx, &captureHandler{c: c, next: h})
}

// Err returns the first write failure.
func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Capture) record(r Report, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	if c.origin.IsZero() {
		c.origin = at
	}
	c.err = WriteRecords(c.w, c.origin, r)
}

type captureHandler struct {
	c    *Capture
	next Handler
}

func (h *captureHandler) HandleSample(s Sample) {
	h.c.record(s, s.Time)
	h.next.HandleSample(s)
}

func (h *captureHandler) HandleActivation(a Activation) {
	h.c.record(a, a.Time)
	h.next.HandleActivation(a)
}
