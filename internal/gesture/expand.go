package gesture

import "strings"

// Expand repeats each token of s so the result has exactly tokens tokens.
// tokens must be a multiple of the token count of s; otherwise s is
// returned unchanged.
func Expand(s String, tokens int) String {
	toks := s.Tokens()
	if len(toks) == 0 || tokens <= 0 || tokens%len(toks) != 0 {
		return s
	}
	factor := tokens / len(toks)

	var sb strings.Builder
	sb.Grow(len(s) * factor)
	for _, tok := range toks {
		for i := 0; i < factor; i++ {
			sb.WriteString(tok)
			sb.WriteByte(Separator)
		}
	}
	return String(sb.String())
}

// ExpandPair expands both strings to the least common multiple of their
// token counts.
func ExpandPair(a, b String) (String, String) {
	n := lcm(a.TokenCount(), b.TokenCount())
	if n == 0 {
		return a, b
	}
	return Expand(a, n), Expand(b, n)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// lcm returns zero when either count is zero.
func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
