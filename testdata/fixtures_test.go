package testdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
)

func TestLoadPatterns(t *testing.T) {
	patterns, err := LoadPatterns("basic")
	require.NoError(t, err)
	require.Len(t, patterns, 4)
	assert.Equal(t, gesture.Pattern{Name: "swipe_right", Gesture: "j_.j_.j_."}, patterns[0])

	_, err = LoadPatterns("missing")
	assert.Error(t, err)
}

func TestTraceExists(t *testing.T) {
	for _, name := range []string{"swipe_right", "raise_both"} {
		_, err := Trace(name)
		assert.NoError(t, err, name)
	}
}

func TestMovesProduceLetters(t *testing.T) {
	for _, remap := range []bool{false, true} {
		cfg := capture.DefaultConfig()
		cfg.AxisRemap = remap
		c := capture.NewConverter(cfg)

		start := time.Unix(100, 0)
		for _, r := range Moves(start, remap,
			Step{Sensor: 0, Letter: 'j', At: 100 * time.Millisecond},
			Step{Sensor: 1, Letter: 'a', At: 150 * time.Millisecond},
			Step{Sensor: 1, Letter: 'r', At: 400 * time.Millisecond},
		) {
			r.Deliver(c)
		}

		assert.Equal(t, gesture.String("ja._r."), c.Snapshot(), "remap=%v", remap)
	}
}
