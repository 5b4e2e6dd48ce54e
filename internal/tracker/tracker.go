// Package tracker defines the motion tracker contract: two position sensors
// with an optional activation control each.
package tracker

import (
	"context"
	"errors"
	"time"
)

// Sensor indices.
const (
	SensorPrimary   = 0
	SensorSecondary = 1
	SensorCount     = 2
)

// ErrNotOpen is returned when updating a tracker that is not open.
var ErrNotOpen = errors.New("tracker is not open")

// Vec3 is a position in tracker coordinates (x, y, z), y up.
type Vec3 [3]float64

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// LengthSq returns the squared Euclidean length.
func (v Vec3) LengthSq() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Sample is a position report from one sensor.
type Sample struct {
	Sensor   int
	Position Vec3
	Time     time.Time
}

// Activation is a button or analog grab report from one sensor. Buttons
// report 0 or 1.
type Activation struct {
	Sensor int
	Value  float64
	Time   time.Time
}

// Handler receives tracker reports.
type Handler interface {
	HandleSample(Sample)
	HandleActivation(Activation)
}

// Report is anything a tracker can deliver.
type Report interface {
	Deliver(h Handler)
}

// Deliver implements Report.
func (s Sample) Deliver(h Handler) { h.HandleSample(s) }

// Deliver implements Report.
func (a Activation) Deliver(h Handler) { h.HandleActivation(a) }

// Tracker is a source of sensor reports.
type Tracker interface {
	Open() error
	Close() error
	// Update delivers every pending report to h. It returns io.EOF once a
	// finite source is exhausted.
	Update(ctx context.Context, h Handler) error
	IsOpen() bool
}
