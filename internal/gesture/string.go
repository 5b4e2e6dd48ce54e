package gesture

import "strings"

// String is a gesture string: a sequence of tokens, each made of one
// character per sensor followed by Separator ("ab.c_.").
type String string

// Tokens splits the string on Separator, skipping empty segments. The
// returned tokens do not include the separator.
func (s String) Tokens() []string {
	parts := strings.Split(string(s), string(Separator))
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// TokenCount returns the number of non-empty tokens.
func (s String) TokenCount() int {
	n := 0
	for _, p := range strings.Split(string(s), string(Separator)) {
		if p != "" {
			n++
		}
	}
	return n
}

// Empty reports whether the string holds no tokens.
func (s String) Empty() bool {
	return s.TokenCount() == 0
}

// Valid reports whether s is a well formed two-sensor string: every token is
// two characters from a..z or '_' and every token ends in Separator.
func (s String) Valid() bool {
	if s == "" || len(s)%3 != 0 {
		return false
	}
	for i := 0; i < len(s); i += 3 {
		if !validSymbol(s[i]) || !validSymbol(s[i+1]) || s[i+2] != Separator {
			return false
		}
	}
	return true
}

func validSymbol(b byte) bool {
	return IsLetter(b) || b == NoMovement
}

// WellFormed reports whether s is one or more segments of letters and
// NoMovement, each terminated by Separator. It accepts hand-written tokens
// wider than two characters, such as "ne_.".
func (s String) WellFormed() bool {
	if s == "" || s[len(s)-1] != Separator {
		return false
	}
	segment := 0
	for i := 0; i < len(s); i++ {
		if s[i] == Separator {
			if segment == 0 {
				return false
			}
			segment = 0
			continue
		}
		if !validSymbol(s[i]) {
			return false
		}
		segment++
	}
	return true
}

// IsSingleSensor reports whether at most one sensor ever moves in s. The
// last character of a token belongs to sensor 1 and everything before it to
// sensor 0.
func (s String) IsSingleSensor() bool {
	var moved [2]bool
	for _, tok := range s.Tokens() {
		last := len(tok) - 1
		if tok[last] != NoMovement {
			moved[1] = true
		}
		for i := 0; i < last; i++ {
			if tok[i] != NoMovement {
				moved[0] = true
			}
		}
	}
	return !(moved[0] && moved[1])
}

// Token builds a single two-sensor token.
func Token(sensor0, sensor1 byte) String {
	return String([]byte{sensor0, sensor1, Separator})
}

// Buffer accumulates tokens for an in-progress gesture. It always holds a
// whole number of tokens.
type Buffer struct {
	b []byte
}

// Append adds a token for the two sensors.
func (b *Buffer) Append(sensor0, sensor1 byte) {
	b.b = append(b.b, sensor0, sensor1, Separator)
}

// ReplaceLast overwrites the most recent token, or appends when empty.
func (b *Buffer) ReplaceLast(sensor0, sensor1 byte) {
	if len(b.b) >= 3 {
		b.b = b.b[:len(b.b)-3]
	}
	b.Append(sensor0, sensor1)
}

// Len returns the number of tokens held.
func (b *Buffer) Len() int {
	return len(b.b) / 3
}

// Gesture returns a copy of the buffered gesture.
func (b *Buffer) Gesture() String {
	return String(b.b)
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.b = b.b[:0]
}
