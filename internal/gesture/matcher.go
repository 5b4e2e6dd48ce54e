// Package gesture provides gesture strings and approximate matching against
// subscribed patterns.
package gesture

import (
	"context"
	"sort"
	"time"
)

// ScorerDistance names the edit-distance scorer.
const ScorerDistance = "distance"

// Candidate is a gesture pattern registered by a subscriber.
type Candidate struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Pattern      String `json:"pattern"`
	SubscriberID int    `json:"subscriber_id"`

	// Filled in per scoring pass on a private copy.
	Expanded    String  `json:"expanded,omitempty"`
	Distance    int     `json:"distance"`
	DistancePct float64 `json:"distance_pct"`
}

// Thresholds hold the maximum accepted distance, in percent of the expanded
// candidate length, for single- and dual-sensor gestures.
type Thresholds struct {
	SingleSensorPct float64
	DualSensorPct   float64
}

// DefaultThresholds returns the stock single and dual sensor limits.
func DefaultThresholds() Thresholds {
	return Thresholds{SingleSensorPct: 25, DualSensorPct: 35}
}

// Result is the outcome of one recognition pass.
type Result struct {
	Input        String        `json:"input"`
	Closest      Candidate     `json:"closest"`
	Scorer       string        `json:"scorer"`
	Score        float64       `json:"score"`
	ThresholdPct float64       `json:"threshold_pct"`
	SingleSensor bool          `json:"single_sensor"`
	Matched      bool          `json:"matched"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Scorer ranks an input gesture against candidates.
type Scorer interface {
	Name() string
	Score(ctx context.Context, input String, candidates []Candidate) (Result, error)
}

// Matcher scores gestures by normalized Damerau-Levenshtein distance.
type Matcher struct {
	thresholds Thresholds
}

// NewMatcher creates a Matcher with the given thresholds.
func NewMatcher(t Thresholds) *Matcher {
	return &Matcher{thresholds: t}
}

// Thresholds returns the configured limits.
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// Name implements Scorer.
func (m *Matcher) Name() string {
	return ScorerDistance
}

// Rank scores every well formed candidate and returns them ordered by
// distance, closest first. Equal distances keep input order. Malformed
// candidates are skipped.
func (m *Matcher) Rank(input String, candidates []Candidate) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Pattern.WellFormed() {
			continue
		}
		expandedInput, expandedPattern := ExpandPair(input, c.Pattern)
		c.Expanded = expandedPattern
		c.Distance = DamerauLevenshtein(string(expandedInput), string(expandedPattern))
		c.DistancePct = float64(c.Distance) * 100 / float64(len(expandedPattern))
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistancePct < ranked[j].DistancePct
	})
	return ranked
}

// Score implements Scorer. The closest candidate matches when its distance
// does not exceed the threshold for the input's sensor class.
func (m *Matcher) Score(_ context.Context, input String, candidates []Candidate) (Result, error) {
	start := time.Now()

	if input.Empty() {
		return Result{}, ErrEmptyGesture
	}

	ranked := m.Rank(input, candidates)
	if len(ranked) == 0 {
		return Result{}, ErrNoCandidates
	}

	closest := ranked[0]
	single := input.IsSingleSensor()
	threshold := m.thresholds.DualSensorPct
	if single {
		threshold = m.thresholds.SingleSensorPct
	}

	return Result{
		Input:        input,
		Closest:      closest,
		Scorer:       ScorerDistance,
		Score:        closest.DistancePct,
		ThresholdPct: threshold,
		SingleSensor: single,
		Matched:      closest.DistancePct <= threshold,
		Elapsed:      time.Since(start),
	}, nil
}
