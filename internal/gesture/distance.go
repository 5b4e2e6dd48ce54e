package gesture

// alphabetSize covers every byte value a gesture string may contain.
const alphabetSize = 256

// DamerauLevenshtein returns the edit distance between a and b counting
// insertions, deletions, substitutions and transpositions of adjacent
// characters (unrestricted variant).
func DamerauLevenshtein(a, b string) int {
	n := len(a)
	m := len(b)

	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}

	maxDist := n + m

	// (n+2) x (m+2) matrix; row and column 0 hold the sentinel maxDist.
	d := make([][]int, n+2)
	for i := range d {
		d[i] = make([]int, m+2)
	}
	d[0][0] = maxDist
	for i := 0; i <= n; i++ {
		d[i+1][0] = maxDist
		d[i+1][1] = i
	}
	for j := 0; j <= m; j++ {
		d[0][j+1] = maxDist
		d[1][j+1] = j
	}

	// last row in which each character was seen in a
	var lastRow [alphabetSize]int

	for i := 1; i <= n; i++ {
		lastMatchCol := 0
		for j := 1; j <= m; j++ {
			i1 := lastRow[b[j-1]]
			j1 := lastMatchCol

			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
				lastMatchCol = j
			}

			d[i+1][j+1] = min4(
				d[i][j]+cost,
				d[i+1][j]+1,
				d[i][j+1]+1,
				d[i1][j1]+(i-i1-1)+1+(j-j1-1),
			)
		}
		lastRow[a[i-1]] = i
	}

	return d[n+1][m+1]
}

// min4 returns the minimum of substitution, insertion, deletion and
// transposition costs.
func min4(a, b, c, d int) int {
	return min(min(a, b), min(c, d))
}
