package gesture

import "math"

// Separator terminates every token of a gesture string.
const Separator = '.'

// NoMovement marks a sensor that did not move during a token.
const NoMovement = '_'

// SnapDegrees is the angular resolution of the letter table.
const SnapDegrees = 45.0

// Direction is a snapped spherical direction in degrees.
// Theta is the polar angle from +z, Phi the azimuth in the x/y plane.
type Direction struct {
	Theta int
	Phi   int
}

// letters maps each of the 26 snapped directions to its letter. The poles
// carry a single letter each because azimuth is meaningless there.
var letters = buildLetterTable()

var directions = func() map[byte]Direction {
	m := make(map[byte]Direction, len(letters))
	for d, l := range letters {
		m[l] = d
	}
	return m
}()

func buildLetterTable() map[Direction]byte {
	table := map[Direction]byte{
		{Theta: 0, Phi: 0}:   'a',
		{Theta: 180, Phi: 0}: 'z',
	}
	next := byte('b')
	for _, theta := range []int{45, 90, 135} {
		for phi := 0; phi < 360; phi += 45 {
			table[Direction{Theta: theta, Phi: phi}] = next
			next++
		}
	}
	return table
}

// LetterFor returns the letter for a snapped direction, or NoMovement when
// the pair is not in the table.
func LetterFor(d Direction) byte {
	d.Phi = ((d.Phi % 360) + 360) % 360
	if d.Theta == 0 || d.Theta == 180 {
		d.Phi = 0
	}
	if l, ok := letters[d]; ok {
		return l
	}
	return NoMovement
}

// DirectionOf returns the snapped direction of a letter.
func DirectionOf(letter byte) (Direction, bool) {
	d, ok := directions[letter]
	return d, ok
}

// IsLetter reports whether b is one of the 26 direction letters.
func IsLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// Snap rounds an angle in degrees to the nearest multiple of SnapDegrees.
func Snap(angle float64) int {
	return int(SnapDegrees * math.Round(angle/SnapDegrees))
}

// Quantize converts a movement delta into a letter. The second result is
// false when the delta carries no direction (zero length or not finite).
func Quantize(dx, dy, dz float64) (byte, bool) {
	r := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return NoMovement, false
	}

	cos := math.Max(-1, math.Min(1, dz/r))
	theta := math.Mod(math.Acos(cos)*180/math.Pi+360, 360)
	phi := math.Mod(math.Atan2(dy, dx)*180/math.Pi+360, 360)

	d := Direction{Theta: Snap(theta), Phi: Snap(phi) % 360}
	return LetterFor(d), true
}

// Vector returns a unit vector pointing along a letter's direction.
func Vector(letter byte) (x, y, z float64, ok bool) {
	d, ok := DirectionOf(letter)
	if !ok {
		return 0, 0, 0, false
	}
	theta := float64(d.Theta) * math.Pi / 180
	phi := float64(d.Phi) * math.Pi / 180
	return math.Sin(theta) * math.Cos(phi), math.Sin(theta) * math.Sin(phi), math.Cos(theta), true
}
