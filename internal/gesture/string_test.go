package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_Tokens(t *testing.T) {
	tests := []struct {
		in   String
		want []string
	}{
		{"", []string{}},
		{"a_.", []string{"a_"}},
		{"a_.bc.", []string{"a_", "bc"}},
		{"ne_.ne_.", []string{"ne_", "ne_"}},
		{"..a_..", []string{"a_"}},
	}
	for _, tt := range tests {
		got := tt.in.Tokens()
		assert.Equal(t, tt.want, got, "Tokens(%q)", tt.in)
		assert.Equal(t, len(tt.want), tt.in.TokenCount())
	}
}

func TestString_Valid(t *testing.T) {
	assert.True(t, String("a_.").Valid())
	assert.True(t, String("a_._b.zz.").Valid())
	assert.False(t, String("").Valid())
	assert.False(t, String("a_").Valid())
	assert.False(t, String("A_.").Valid())
	assert.False(t, String("a_,").Valid())
	assert.False(t, String("ne_.").Valid())
}

func TestString_WellFormed(t *testing.T) {
	tests := []struct {
		in   String
		want bool
	}{
		{"a_.", true},
		{"ne_.ne_.ne_.", true},
		{"_n.en_.", true},
		{"__.", true},
		{"", false},
		{"...", false},
		{"a_", false},
		{"a_a_!!", false},
		{"a_..b_.", false},
		{"A_.", false},
		{"a-.", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.WellFormed(), "WellFormed(%q)", tt.in)
	}
}

func TestString_IsSingleSensor(t *testing.T) {
	tests := []struct {
		in   String
		want bool
	}{
		{"a_.b_.c_.", true},
		{"_a._b.", true},
		{"__.", true},
		{"a_._b.", false},
		{"ab.", false},
		{"_n.en_.", false},
		{"ne_.ne_.ne_.", true},
		{"_ne.", true},
		{"ne_._a.", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.IsSingleSensor(), "IsSingleSensor(%q)", tt.in)
	}
}

func TestBuffer(t *testing.T) {
	var b Buffer
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, String(""), b.Gesture())

	b.ReplaceLast('a', '_')
	assert.Equal(t, String("a_."), b.Gesture(), "replace on empty appends")

	b.Append('b', '_')
	b.ReplaceLast('b', 'c')
	assert.Equal(t, String("a_.bc."), b.Gesture())
	assert.Equal(t, 2, b.Len())
	assert.True(t, b.Gesture().Valid())

	snapshot := b.Gesture()
	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, String("a_.bc."), snapshot, "snapshot survives reset")
}

func TestExpand(t *testing.T) {
	tests := []struct {
		in     String
		tokens int
		want   String
	}{
		{"a_.", 3, "a_.a_.a_."},
		{"a_.b_.", 4, "a_.a_.b_.b_."},
		{"a_.b_.", 2, "a_.b_."},
		{"ne_.", 3, "ne_.ne_.ne_."},
		{"a_.b_.", 3, "a_.b_."},
		{"", 4, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Expand(tt.in, tt.tokens), "Expand(%q, %d)", tt.in, tt.tokens)
	}
}

func TestExpandPair(t *testing.T) {
	a, b := ExpandPair("a_.b_.", "c_.d_.e_.")
	assert.Equal(t, String("a_.a_.a_.b_.b_.b_."), a)
	assert.Equal(t, String("c_.c_.d_.d_.e_.e_."), b)
	assert.Equal(t, 6, a.TokenCount())
	assert.Equal(t, 6, b.TokenCount())

	a, b = ExpandPair("", "c_.")
	assert.Equal(t, String(""), a)
	assert.Equal(t, String("c_."), b)
}

func TestLCM(t *testing.T) {
	assert.Equal(t, 12, lcm(4, 6))
	assert.Equal(t, 3, lcm(3, 1))
	assert.Equal(t, 0, lcm(0, 5))
}
