package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantize(t *testing.T) {
	tests := []struct {
		name       string
		dx, dy, dz float64
		want       byte
	}{
		{"straight up", 0, 0, 1, 'a'},
		{"straight down", 0, 0, -1, 'z'},
		{"near pole ignores azimuth", 0.01, 0.3, 1, 'a'},
		{"near bottom pole ignores azimuth", -0.2, -0.1, -1, 'z'},
		{"equator +x", 1, 0, 0, 'j'},
		{"equator +y", 0, 1, 0, 'l'},
		{"equator -x", -1, 0, 0, 'n'},
		{"equator -y", 0, -1, 0, 'p'},
		{"upper +x", 1, 0, 1, 'b'},
		{"upper +x+y", 1, 1, math.Sqrt2, 'c'},
		{"lower +x", 1, 0, -1, 'r'},
		{"lower -y", 0, -1, -1, 'x'},
		{"azimuth wraps to zero", 1, -0.01, 0, 'j'},
		{"scale does not matter", 0.001, 0, 0, 'j'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quantize(tt.dx, tt.dy, tt.dz)
			require.True(t, ok)
			assert.Equal(t, string(tt.want), string(got))
		})
	}
}

func TestQuantize_NoDirection(t *testing.T) {
	for _, d := range [][3]float64{
		{0, 0, 0},
		{math.NaN(), 0, 1},
		{math.Inf(1), 0, 0},
	} {
		letter, ok := Quantize(d[0], d[1], d[2])
		assert.False(t, ok, "delta %v", d)
		assert.Equal(t, byte(NoMovement), letter)
	}
}

func TestQuantize_Deterministic(t *testing.T) {
	first, _ := Quantize(0.3, -0.7, 0.2)
	for i := 0; i < 100; i++ {
		got, _ := Quantize(0.3, -0.7, 0.2)
		require.Equal(t, first, got)
	}
}

func TestLetterTable(t *testing.T) {
	seen := make(map[byte]bool)
	for l := byte('a'); l <= 'z'; l++ {
		d, ok := DirectionOf(l)
		require.True(t, ok, "letter %c has no direction", l)
		assert.Equal(t, l, LetterFor(d))
		seen[l] = true
	}
	assert.Len(t, seen, 26)

	_, ok := DirectionOf('_')
	assert.False(t, ok)
}

func TestLetterFor(t *testing.T) {
	assert.Equal(t, byte('a'), LetterFor(Direction{Theta: 0, Phi: 135}), "pole azimuth forced to zero")
	assert.Equal(t, byte('j'), LetterFor(Direction{Theta: 90, Phi: 360}))
	assert.Equal(t, byte(NoMovement), LetterFor(Direction{Theta: 30, Phi: 0}))
}

func TestSnap(t *testing.T) {
	assert.Equal(t, 0, Snap(22.4))
	assert.Equal(t, 45, Snap(22.5))
	assert.Equal(t, 360, Snap(337.6))
	assert.Equal(t, 180, Snap(179.9))
}

func TestVector_RoundTrip(t *testing.T) {
	for l := byte('a'); l <= 'z'; l++ {
		x, y, z, ok := Vector(l)
		require.True(t, ok)
		assert.InDelta(t, 1.0, math.Sqrt(x*x+y*y+z*z), 1e-9)

		got, ok := Quantize(x, y, z)
		require.True(t, ok)
		assert.Equal(t, string(l), string(got))
	}

	_, _, _, ok := Vector('.')
	assert.False(t, ok)
}
