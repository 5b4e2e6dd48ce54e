package gesture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	cls   Classification
	err   error
	names []string
}

func (s *stubClassifier) Classify(_ context.Context, _ String, names []string) (Classification, error) {
	s.names = names
	return s.cls, s.err
}

func TestClassifierScorer(t *testing.T) {
	cands := candidates("a_.", "b_.", "c_.")

	stub := &stubClassifier{cls: Classification{Index: 1, ConfidencePct: 80, Elapsed: 3 * time.Millisecond}}
	s := NewClassifierScorer(stub, 55)

	res, err := s.Score(context.Background(), "b_.b_.", cands)
	require.NoError(t, err)
	assert.Equal(t, []string{"g0", "g1", "g2"}, stub.names)
	assert.Equal(t, "g1", res.Closest.Name)
	assert.Equal(t, ScorerClassifier, res.Scorer)
	assert.True(t, res.Matched)
	assert.Equal(t, 3*time.Millisecond, res.Elapsed)

	stub.cls = Classification{Name: "g2", ConfidencePct: 40}
	res, err = s.Score(context.Background(), "b_.", cands)
	require.NoError(t, err)
	assert.Equal(t, "g2", res.Closest.Name)
	assert.False(t, res.Matched)
}

func TestClassifierScorer_Errors(t *testing.T) {
	cands := candidates("a_.")

	s := NewClassifierScorer(&stubClassifier{err: errors.New("model offline")}, 55)
	_, err := s.Score(context.Background(), "a_.", cands)
	assert.ErrorContains(t, err, "model offline")

	s = NewClassifierScorer(&stubClassifier{cls: Classification{Index: 5}}, 55)
	_, err = s.Score(context.Background(), "a_.", cands)
	assert.Error(t, err)

	_, err = s.Score(context.Background(), "a_.", nil)
	assert.True(t, errors.Is(err, ErrNoCandidates))
}
