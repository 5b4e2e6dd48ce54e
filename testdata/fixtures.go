// Package testdata holds pattern files, tracker traces and a small
// builder for scripted sensor movement shared by tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/tracker"
)

//go:embed patterns/*.txt traces/*.jsonl
var fixturesFS embed.FS

// LoadPatterns parses an embedded pattern file, e.g. "basic".
func LoadPatterns(name string) ([]gesture.Pattern, error) {
	data, err := fixturesFS.ReadFile("patterns/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("load patterns %s: %w", name, err)
	}
	return gesture.ReadPatterns(bytes.NewReader(data))
}

// Trace opens an embedded JSON-lines tracker trace, e.g. "swipe_right".
// Traces are recorded in the y-up tracker frame.
func Trace(name string) (io.Reader, error) {
	data, err := fixturesFS.ReadFile("traces/" + name + ".jsonl")
	if err != nil {
		return nil, fmt.Errorf("load trace %s: %w", name, err)
	}
	return bytes.NewReader(data), nil
}

// StepSize is how far a Step moves a sensor, in metres.
const StepSize = 0.1

// Step moves one sensor StepSize along a letter's direction at At.
type Step struct {
	Sensor int
	Letter byte
	At     time.Duration
}

// Moves renders steps as tracker samples. Both sensors are seeded at the
// origin at start. With remap set, positions are written in the y-up
// tracker frame so that an axis-remapping converter recovers the letters.
func Moves(start time.Time, remap bool, steps ...Step) []tracker.Report {
	var pos [tracker.SensorCount]tracker.Vec3
	reports := make([]tracker.Report, 0, len(steps)+tracker.SensorCount)
	for s := 0; s < tracker.SensorCount; s++ {
		reports = append(reports, tracker.Sample{Sensor: s, Time: start})
	}

	for _, st := range steps {
		x, y, z, ok := gesture.Vector(st.Letter)
		if !ok {
			panic(fmt.Sprintf("testdata: no direction for letter %q", st.Letter))
		}
		d := tracker.Vec3{x, y, z}
		if remap {
			d = tracker.Vec3{y, z, x}
		}
		p := pos[st.Sensor]
		pos[st.Sensor] = tracker.Vec3{p[0] + StepSize*d[0], p[1] + StepSize*d[1], p[2] + StepSize*d[2]}
		reports = append(reports, tracker.Sample{Sensor: st.Sensor, Position: pos[st.Sensor], Time: start.Add(st.At)})
	}
	return reports
}
