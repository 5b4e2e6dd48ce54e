// Package capture turns tracker reports into gesture strings.
package capture

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/pkg/logger"
	"github.com/ayusman/mudra/pkg/metrics"
)

// Config holds converter tuning.
type Config struct {
	// MovementThresholdSq is the squared distance a sensor must travel from
	// its last accepted position before a movement event is emitted.
	MovementThresholdSq float64
	// GroupingWindow joins movements of both sensors into one token.
	GroupingWindow time.Duration
	// PauseWindow of stillness completes a gesture.
	PauseWindow time.Duration
	// PollInterval paces tracker updates and pause checks in Run.
	PollInterval time.Duration

	UseActivation       bool
	ActivationThreshold float64

	// AxisRemap maps y-up tracker coordinates into the z-up frame used for
	// quantization: dx = Δz, dy = Δx, dz = Δy.
	AxisRemap bool

	// Verbose logs every buffer update.
	Verbose bool
}

// DefaultConfig returns the stock converter settings.
func DefaultConfig() Config {
	return Config{
		MovementThresholdSq: 0.0004,
		GroupingWindow:      200 * time.Millisecond,
		PauseWindow:         500 * time.Millisecond,
		PollInterval:        10 * time.Millisecond,
		ActivationThreshold: 0.8,
		AxisRemap:           true,
	}
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the converter logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// WithClock sets the time source for pause detection.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

type sensorState struct {
	seeded      bool
	last        tracker.Vec3
	seen        time.Time
	letter      byte
	lastMove    time.Time
	lastGrouped time.Time
	active      bool
}

// Converter quantizes sensor movement into gesture tokens and hands a
// completed gesture to the consumer once both sensors have been still for
// the pause window.
type Converter struct {
	cfg Config
	log logger.Logger
	now func() time.Time

	mu       sync.Mutex
	sensors  [tracker.SensorCount]sensorState
	buf      gesture.Buffer
	lastMove time.Time
	enabled  bool

	// unbuffered: a send completes only when the consumer takes the gesture
	handoff  chan gesture.String
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewConverter creates a Converter.
func NewConverter(cfg Config, opts ...Option) *Converter {
	c := &Converter{
		cfg:     cfg,
		now:     time.Now,
		enabled: true,
		handoff: make(chan gesture.String),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NamedOrNop("converter")
	}
	for i := range c.sensors {
		c.sensors[i].letter = gesture.NoMovement
	}
	return c
}

// SetEnabled switches recording on or off regardless of activation state.
func (c *Converter) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Enabled reports whether movements are currently appended.
func (c *Converter) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordingLocked()
}

func (c *Converter) recordingLocked() bool {
	if !c.enabled {
		return false
	}
	if !c.cfg.UseActivation {
		return true
	}
	for _, s := range c.sensors {
		if s.active {
			return true
		}
	}
	return false
}

// HandleActivation implements tracker.Handler.
func (c *Converter) HandleActivation(a tracker.Activation) {
	if a.Sensor < 0 || a.Sensor >= tracker.SensorCount {
		metrics.RecordDroppedSample("unknown_sensor")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	active := a.Value > c.cfg.ActivationThreshold
	if c.sensors[a.Sensor].active != active {
		c.log.Debug(context.Background(), "activation changed",
			logger.Int("sensor", a.Sensor), logger.Bool("active", active))
	}
	c.sensors[a.Sensor].active = active
}

// HandleSample implements tracker.Handler.
func (c *Converter) HandleSample(s tracker.Sample) {
	if s.Sensor < 0 || s.Sensor >= tracker.SensorCount {
		metrics.RecordDroppedSample("unknown_sensor")
		return
	}
	for _, v := range s.Position {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			metrics.RecordDroppedSample("non_finite")
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := &c.sensors[s.Sensor]
	if !st.seeded {
		st.seeded = true
		st.last = s.Position
		st.seen = s.Time
		return
	}
	if s.Time.Before(st.seen) {
		metrics.RecordDroppedSample("out_of_order")
		return
	}
	st.seen = s.Time

	if !c.recordingLocked() {
		st.last = s.Position
		return
	}

	delta := s.Position.Sub(st.last)
	if delta.LengthSq() <= c.cfg.MovementThresholdSq {
		return
	}

	dx, dy, dz := delta[0], delta[1], delta[2]
	if c.cfg.AxisRemap {
		dx, dy, dz = delta[2], delta[0], delta[1]
	}
	letter, ok := gesture.Quantize(dx, dy, dz)
	if !ok {
		return
	}

	st.last = s.Position
	c.appendMovementLocked(s.Sensor, letter, s.Time)
}

// appendMovementLocked records a movement event. When the other sensor moved
// within the grouping window and that movement has not been grouped yet, the
// last token is rewritten to carry both letters.
func (c *Converter) appendMovementLocked(sensor int, letter byte, at time.Time) {
	st := &c.sensors[sensor]
	other := &c.sensors[1-sensor]

	st.lastMove = at
	st.letter = letter
	c.lastMove = at

	since := at.Sub(other.lastMove)
	if since < 0 {
		since = -since
	}

	if other.lastMove != other.lastGrouped && since < c.cfg.GroupingWindow {
		st.lastGrouped = at
		other.lastGrouped = other.lastMove
		c.buf.ReplaceLast(c.sensors[0].letter, c.sensors[1].letter)
	} else {
		other.letter = gesture.NoMovement
		c.buf.Append(c.sensors[0].letter, c.sensors[1].letter)
	}

	metrics.RecordMovement(sensor)
	if c.cfg.Verbose {
		c.log.Info(context.Background(), "gesture updated",
			logger.Int("sensor", sensor), logger.String("gesture", string(c.buf.Gesture())))
	}
}

// Pending returns the number of tokens in the in-progress gesture.
func (c *Converter) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

// Snapshot returns the in-progress gesture.
func (c *Converter) Snapshot() gesture.String {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Gesture()
}

// Poll completes the current gesture once no sensor has moved for the pause
// window. Gestures of a single token are discarded. A completed gesture is
// handed to Next; Poll blocks until it is taken or ctx is done.
func (c *Converter) Poll(ctx context.Context) error {
	c.mu.Lock()
	if c.buf.Len() == 0 || c.now().Sub(c.lastMove) <= c.cfg.PauseWindow {
		c.mu.Unlock()
		return nil
	}
	g := c.buf.Gesture()
	tokens := c.buf.Len()
	c.buf.Reset()
	c.mu.Unlock()

	if tokens <= 1 {
		metrics.RecordGestureDiscarded()
		c.log.Debug(ctx, "discarding single movement", logger.String("gesture", string(g)))
		return nil
	}

	select {
	case c.handoff <- g:
		metrics.RecordGestureCompleted()
		c.log.Debug(ctx, "gesture completed", logger.String("gesture", string(g)), logger.Int("tokens", tokens))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next blocks until a gesture is completed, the driver stops, or ctx is done.
func (c *Converter) Next(ctx context.Context) (gesture.String, error) {
	select {
	case g := <-c.handoff:
		return g, nil
	case <-c.stopped:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run opens the tracker and alternates tracker updates with pause checks
// every poll interval. It returns nil once a finite tracker is exhausted and
// the last gesture has been handed off.
func (c *Converter) Run(ctx context.Context, tr tracker.Tracker) error {
	defer c.stopOnce.Do(func() { close(c.stopped) })

	if err := tr.Open(); err != nil {
		return err
	}
	defer tr.Close()

	interval := c.cfg.PollInterval
	if interval <= 0 {
		interval = DefaultConfig().PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	exhausted := false
	for {
		if !exhausted {
			err := tr.Update(ctx, c)
			switch {
			case errors.Is(err, io.EOF):
				exhausted = true
				c.log.Info(ctx, "tracker exhausted")
			case err != nil && ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				c.log.Warn(ctx, "tracker update failed", logger.Error(err))
			}
		}

		if err := c.Poll(ctx); err != nil {
			return err
		}
		if exhausted && c.Pending() == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
