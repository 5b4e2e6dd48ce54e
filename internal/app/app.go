// Package app wires the converter, matcher and broker into the recognizer.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/broker"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/pkg/logger"
	"github.com/ayusman/mudra/pkg/metrics"
)

// Config holds recognizer settings.
type Config struct {
	Converter      capture.Config
	Thresholds     gesture.Thresholds
	MLThresholdPct float64

	// Mode is config.ModeSubscriptions or config.ModeFile.
	Mode string
	// Scorer is config.ScorerDistance, config.ScorerClassifier or config.ScorerBoth.
	Scorer string

	// DrainRetry is the pause after a failed registration read.
	DrainRetry time.Duration
}

// ConfigFrom maps process configuration onto recognizer settings.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Converter: capture.Config{
			MovementThresholdSq: c.MovementThresholdSq,
			GroupingWindow:      config.Millis(c.GroupingWindowMS),
			PauseWindow:         config.Millis(c.PauseWindowMS),
			PollInterval:        config.Millis(c.PollIntervalMS),
			UseActivation:       c.UseActivation,
			ActivationThreshold: c.ActivationThreshold,
			AxisRemap:           c.AxisRemap,
			Verbose:             c.Verbose,
		},
		Thresholds: gesture.Thresholds{
			SingleSensorPct: c.SingleSensorThresholdPct,
			DualSensorPct:   c.DualSensorThresholdPct,
		},
		MLThresholdPct: c.MLThresholdPct,
		Mode:           c.Mode,
		Scorer:         c.Scorer,
		DrainRetry:     time.Second,
	}
}

// DefaultConfig returns stock recognizer settings in subscription mode.
func DefaultConfig() Config {
	return ConfigFrom(config.New())
}

// Option configures an App.
type Option func(*App)

// WithBroker enables subscriptions and detection notifications.
func WithBroker(b *broker.Broker) Option {
	return func(a *App) { a.broker = b }
}

// WithClassifier sets the model used by the classifier scorer.
func WithClassifier(c gesture.Classifier) Option {
	return func(a *App) { a.classifier = c }
}

// WithDrawHook sets the command that draws the input and closest pattern.
func WithDrawHook(h *plugin.Hook) Option {
	return func(a *App) { a.draw = h }
}

// WithLogger sets the recognizer logger.
func WithLogger(l logger.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithConverterOptions passes options through to the converter.
func WithConverterOptions(opts ...capture.Option) Option {
	return func(a *App) { a.converterOpts = append(a.converterOpts, opts...) }
}

// App is the gesture recognizer. It owns one converter and one candidate
// set; nothing is shared through package state.
type App struct {
	cfg Config
	log logger.Logger

	converter     *capture.Converter
	converterOpts []capture.Option
	candidates    *gesture.CandidateSet
	scorers       []gesture.Scorer
	classifier    gesture.Classifier
	broker        *broker.Broker
	draw          *plugin.Hook

	mu        sync.RWMutex
	listeners []func(Outcome)
	last      *Outcome
}

// New creates an App.
func New(cfg Config, opts ...Option) *App {
	a := &App{
		cfg:        cfg,
		candidates: gesture.NewCandidateSet(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.NamedOrNop("recognizer")
	}

	a.converter = capture.NewConverter(cfg.Converter, a.converterOpts...)

	distance := gesture.NewMatcher(cfg.Thresholds)
	var classifier gesture.Scorer
	if a.classifier != nil {
		classifier = gesture.NewClassifierScorer(a.classifier, cfg.MLThresholdPct)
	}

	// The first scorer's verdict drives notifications.
	switch {
	case cfg.Scorer == config.ScorerClassifier && classifier != nil:
		a.scorers = []gesture.Scorer{classifier}
	case cfg.Scorer == config.ScorerBoth && classifier != nil:
		a.scorers = []gesture.Scorer{distance, classifier}
	default:
		a.scorers = []gesture.Scorer{distance}
	}

	return a
}

// Converter returns the stream-to-symbol converter.
func (a *App) Converter() *capture.Converter {
	return a.converter
}

// Candidates returns the live candidate set.
func (a *App) Candidates() *gesture.CandidateSet {
	return a.candidates
}

// Scorers returns the names of the active scorers, decisive first.
func (a *App) Scorers() []string {
	names := make([]string, len(a.scorers))
	for i, s := range a.scorers {
		names[i] = s.Name()
	}
	return names
}

// SetEnabled enables or disables recording.
func (a *App) SetEnabled(enabled bool) {
	a.converter.SetEnabled(enabled)
}

// IsEnabled returns whether recording is enabled.
func (a *App) IsEnabled() bool {
	return a.converter.Enabled()
}

// LoadPatterns adds file patterns as candidates without a subscriber and
// returns how many were added. Malformed patterns are skipped.
func (a *App) LoadPatterns(patterns []gesture.Pattern) int {
	added := 0
	for _, c := range gesture.Candidates(patterns) {
		if !c.Pattern.WellFormed() {
			a.log.Warn(context.Background(), "skipping malformed pattern",
				logger.String("name", c.Name), logger.String("pattern", string(c.Pattern)))
			continue
		}
		a.candidates.Add(c)
		added++
	}
	metrics.UpdateCandidateCount(a.candidates.Len())
	a.log.Info(context.Background(), "loaded patterns", logger.Int("count", added))
	return added
}

// AddSubscription adds a subscriber's pattern to the candidate set.
func (a *App) AddSubscription(ctx context.Context, sub broker.Subscription) (gesture.Candidate, bool) {
	if !sub.Pattern.WellFormed() {
		a.log.Warn(ctx, "ignoring malformed subscription pattern",
			logger.String("pattern", string(sub.Pattern)),
			logger.Int("subscriber", sub.SubscriberID), logger.String("name", sub.Name))
		return gesture.Candidate{}, false
	}
	c := a.candidates.Add(gesture.Candidate{
		Name:         sub.Name,
		Pattern:      sub.Pattern,
		SubscriberID: sub.SubscriberID,
	})
	metrics.UpdateCandidateCount(a.candidates.Len())
	a.log.Info(ctx, "subscription registered",
		logger.Int("subscriber", sub.SubscriberID),
		logger.String("name", sub.Name),
		logger.String("pattern", string(sub.Pattern)),
	)
	return c, true
}

// OnResult registers fn to receive every recognition outcome. fn runs on
// the recognizer goroutine and must not block.
func (a *App) OnResult(fn func(Outcome)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Last returns the most recent outcome.
func (a *App) Last() (Outcome, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return Outcome{}, false
	}
	return *a.last, true
}

func (a *App) publish(o Outcome) {
	a.mu.Lock()
	a.last = &o
	listeners := append([]func(Outcome){}, a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(o)
	}
}
