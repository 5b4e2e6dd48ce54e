package gesture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Pattern is a named gesture string as stored in a patterns file.
type Pattern struct {
	Name    string
	Gesture String
}

// ReadPatterns parses "name gesture" lines. Blank lines and lines starting
// with '#' are skipped. Names cannot contain whitespace.
func ReadPatterns(r io.Reader) ([]Pattern, error) {
	var patterns []Pattern

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want \"name gesture\", got %d fields", ErrInvalidPattern, line, len(fields))
		}
		p := Pattern{Name: fields[0], Gesture: String(fields[1])}
		if !p.Gesture.WellFormed() {
			return nil, fmt.Errorf("%w: line %d: %q is not a gesture string", ErrInvalidPattern, line, fields[1])
		}
		patterns = append(patterns, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// WritePatterns writes one "name gesture" line per pattern.
func WritePatterns(w io.Writer, patterns []Pattern) error {
	bw := bufio.NewWriter(w)
	for _, p := range patterns {
		if strings.ContainsAny(p.Name, " \t\n") || p.Name == "" {
			return fmt.Errorf("%w: name %q", ErrInvalidPattern, p.Name)
		}
		if !p.Gesture.WellFormed() {
			return fmt.Errorf("%w: %s: %q", ErrInvalidPattern, p.Name, p.Gesture)
		}
		if _, err := fmt.Fprintf(bw, "%s %s\n", p.Name, p.Gesture); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadPatternFile reads a patterns file from disk.
func LoadPatternFile(path string) ([]Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	patterns, err := ReadPatterns(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patterns, nil
}

// SavePatternFile replaces the contents of a patterns file.
func SavePatternFile(path string, patterns []Pattern) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := WritePatterns(f, patterns); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Candidates converts patterns into subscriber-less candidates.
func Candidates(patterns []Pattern) []Candidate {
	out := make([]Candidate, len(patterns))
	for i, p := range patterns {
		out[i] = Candidate{Name: p.Name, Pattern: p.Gesture}
	}
	return out
}
