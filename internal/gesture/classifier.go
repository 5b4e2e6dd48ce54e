package gesture

import (
	"context"
	"fmt"
	"time"
)

// ScorerClassifier names the classifier-backed scorer.
const ScorerClassifier = "classifier"

// Classification is a classifier's verdict for one gesture.
type Classification struct {
	Index         int
	Name          string
	ConfidencePct float64
	Elapsed       time.Duration
}

// Classifier is a trained model that picks the most likely candidate.
type Classifier interface {
	Classify(ctx context.Context, input String, names []string) (Classification, error)
}

// ClassifierScorer adapts a Classifier to the Scorer contract. A
// classification matches when its confidence reaches the threshold.
type ClassifierScorer struct {
	classifier   Classifier
	thresholdPct float64
}

// NewClassifierScorer wraps c with a confidence threshold in percent.
func NewClassifierScorer(c Classifier, thresholdPct float64) *ClassifierScorer {
	return &ClassifierScorer{classifier: c, thresholdPct: thresholdPct}
}

// Name implements Scorer.
func (s *ClassifierScorer) Name() string {
	return ScorerClassifier
}

// Score implements Scorer.
func (s *ClassifierScorer) Score(ctx context.Context, input String, candidates []Candidate) (Result, error) {
	if input.Empty() {
		return Result{}, ErrEmptyGesture
	}
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	cls, err := s.classifier.Classify(ctx, input, names)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}

	closest, ok := resolve(cls, candidates)
	if !ok {
		return Result{}, fmt.Errorf("classifier returned unknown candidate %q (index %d)", cls.Name, cls.Index)
	}

	return Result{
		Input:        input,
		Closest:      closest,
		Scorer:       ScorerClassifier,
		Score:        cls.ConfidencePct,
		ThresholdPct: s.thresholdPct,
		SingleSensor: input.IsSingleSensor(),
		Matched:      cls.ConfidencePct >= s.thresholdPct,
		Elapsed:      cls.Elapsed,
	}, nil
}

// resolve prefers the name when the classifier reports one.
func resolve(cls Classification, candidates []Candidate) (Candidate, bool) {
	if cls.Name != "" {
		for _, c := range candidates {
			if c.Name == cls.Name {
				return c, true
			}
		}
		return Candidate{}, false
	}
	if cls.Index < 0 || cls.Index >= len(candidates) {
		return Candidate{}, false
	}
	return candidates[cls.Index], true
}
