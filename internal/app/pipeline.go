package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/broker"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/pkg/logger"
	"github.com/ayusman/mudra/pkg/metrics"
)

// Outcome is one recognition pass over a completed gesture.
type Outcome struct {
	Gesture gesture.String   `json:"gesture"`
	Results []gesture.Result `json:"results"`
	// DecidedBy names the scorer whose result drives notifications. When
	// empty, the first result decides.
	DecidedBy string `json:"decided_by,omitempty"`
	// Notified is set when a detection was sent to a subscriber.
	Notified bool      `json:"notified"`
	At       time.Time `json:"at"`
}

// Decisive returns the result that drives notifications. It reports false
// when the deciding scorer produced no result.
func (o Outcome) Decisive() (gesture.Result, bool) {
	if o.DecidedBy == "" {
		if len(o.Results) == 0 {
			return gesture.Result{}, false
		}
		return o.Results[0], true
	}
	for _, res := range o.Results {
		if res.Scorer == o.DecidedBy {
			return res, true
		}
	}
	return gesture.Result{}, false
}

// Run drives the tracker through the converter and recognizes every
// completed gesture. In subscription mode it also drains the registration
// queue. Run returns when ctx is cancelled or a finite tracker is exhausted.
func (a *App) Run(ctx context.Context, tr tracker.Tracker) error {
	g, gctx := errgroup.WithContext(ctx)
	drainCtx, stopDrain := context.WithCancel(gctx)
	defer stopDrain()

	g.Go(func() error {
		return a.converter.Run(gctx, tr)
	})

	if a.cfg.Mode != config.ModeFile && a.broker != nil {
		g.Go(func() error {
			return a.drainSubscriptions(drainCtx)
		})
	}

	g.Go(func() error {
		defer stopDrain()
		return a.consume(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// consume takes completed gestures one at a time and recognizes them.
func (a *App) consume(ctx context.Context) error {
	for {
		g, err := a.converter.Next(ctx)
		if errors.Is(err, capture.ErrStopped) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := a.Recognize(ctx, g); err != nil && !errors.Is(err, gesture.ErrNoCandidates) {
			a.log.Warn(ctx, "recognition failed", logger.String("gesture", string(g)), logger.Error(err))
		}
	}
}

// drainSubscriptions appends every registration to the candidate set until
// ctx is done. Read failures are logged and retried.
func (a *App) drainSubscriptions(ctx context.Context) error {
	q, err := a.broker.Registrations(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	a.log.Info(ctx, "listening for subscriptions", logger.String("queue", q.Name()))
	for {
		sub, err := a.broker.NextSubscription(ctx, q)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, broker.ErrMalformedMessage):
			continue
		case err != nil:
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(a.cfg.DrainRetry):
			}
			continue
		}
		a.AddSubscription(ctx, sub)
	}
}

// Recognize scores input against a snapshot of the candidates, notifies the
// winning subscriber on a match and publishes the outcome.
func (a *App) Recognize(ctx context.Context, input gesture.String) (Outcome, error) {
	out := Outcome{Gesture: input, DecidedBy: a.scorers[0].Name(), At: time.Now()}

	candidates := a.candidates.Snapshot()
	metrics.UpdateCandidateCount(len(candidates))
	if len(candidates) == 0 {
		a.log.Info(ctx, "no candidates to match", logger.String("gesture", string(input)))
		a.publish(out)
		return out, gesture.ErrNoCandidates
	}

	for _, s := range a.scorers {
		res, err := s.Score(ctx, input, candidates)
		if err != nil {
			a.log.Warn(ctx, "scorer failed", logger.String("scorer", s.Name()), logger.Error(err))
			continue
		}
		metrics.RecordRecognition(res.Scorer, res.Matched)
		metrics.RecordRecognitionLatency(float64(res.Elapsed) / float64(time.Millisecond))
		a.log.Info(ctx, "gesture scored",
			logger.String("scorer", res.Scorer),
			logger.String("gesture", string(input)),
			logger.String("closest", res.Closest.Name),
			logger.Float64("score", res.Score),
			logger.Float64("threshold", res.ThresholdPct),
			logger.Bool("single_sensor", res.SingleSensor),
			logger.Bool("matched", res.Matched),
		)
		out.Results = append(out.Results, res)
	}

	if res, ok := out.Decisive(); ok {
		if res.Matched && res.Closest.SubscriberID != 0 && a.broker != nil {
			if err := a.broker.Notify(ctx, res.Closest.SubscriberID, res.Closest.Name); err == nil {
				out.Notified = true
				a.log.Info(ctx, "detection sent",
					logger.Int("subscriber", res.Closest.SubscriberID),
					logger.String("name", res.Closest.Name))
			}
		}
		if a.draw != nil {
			if err := a.draw.Run(ctx, string(input), string(res.Closest.Pattern)); err != nil {
				a.log.Warn(ctx, "draw hook failed", logger.Error(err))
			}
		}
	}

	a.publish(out)
	return out, nil
}
