// Package broker implements gesture subscriptions over named, bounded queues
// shared between processes: one registration queue that every subscriber
// writes to, and one notification queue per subscriber process.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/pkg/logger"
	"github.com/ayusman/mudra/pkg/metrics"
)

// RegistrationQueueName is the well-known queue subscribers register on.
const RegistrationQueueName = "gesture_subscription"

// NotificationQueueName returns the detection queue of a subscriber process.
func NotificationQueueName(subscriberID int) string {
	return strconv.Itoa(subscriberID) + "_detected_gestures"
}

// Option configures a Broker.
type Option func(*Broker)

// WithMaxDepth sets the depth of queues created by the broker.
func WithMaxDepth(n int) Option {
	return func(b *Broker) { b.maxDepth = n }
}

// WithMaxMsgSize sets the message size limit of queues created by the broker.
func WithMaxMsgSize(n int) Option {
	return func(b *Broker) { b.maxMsgSize = n }
}

// WithPollInterval sets how often blocked sends and receives retry.
func WithPollInterval(d time.Duration) Option {
	return func(b *Broker) { b.poll = d }
}

// WithSendTimeout bounds how long Send waits on a full queue. Zero waits
// until the context is done.
func WithSendTimeout(d time.Duration) Option {
	return func(b *Broker) { b.sendTimeout = d }
}

// WithReceiveTimeout bounds how long Receive waits on an empty queue. Zero
// waits until the context is done.
func WithReceiveTimeout(d time.Duration) Option {
	return func(b *Broker) { b.receiveTimeout = d }
}

// WithLogger sets the broker logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Broker) { b.log = l }
}

// Broker opens queues in a shared store and exchanges subscription and
// detection messages over them.
type Broker struct {
	queues *store.QueueRepository
	log    logger.Logger

	maxDepth       int
	maxMsgSize     int
	poll           time.Duration
	sendTimeout    time.Duration
	receiveTimeout time.Duration
}

// New creates a Broker over s.
func New(s *store.Store, opts ...Option) *Broker {
	b := &Broker{
		queues:     s.Queues(),
		maxDepth:   100,
		maxMsgSize: 1000,
		poll:       20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.NamedOrNop("broker")
	}
	return b
}

// Queue is an opened named queue.
type Queue struct {
	b    *Broker
	name string
}

// Open opens the named queue, creating it if needed. Either side of a
// channel may open it first.
func (b *Broker) Open(ctx context.Context, name string) (*Queue, error) {
	if _, err := b.queues.Open(ctx, name, b.maxDepth, b.maxMsgSize); err != nil {
		b.fail(ctx, "open", name, err)
		return nil, fmt.Errorf("open queue %s: %w", name, err)
	}
	return &Queue{b: b, name: name}, nil
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Len returns the number of waiting messages.
func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.b.queues.Len(ctx, q.name)
}

// Send appends body to the queue, waiting while the queue is full.
func (q *Queue) Send(ctx context.Context, body []byte) error {
	ctx, cancel := withOptionalTimeout(ctx, q.b.sendTimeout)
	defer cancel()

	err := q.b.retry(ctx, func() (bool, error) {
		_, err := q.b.queues.Push(ctx, q.name, body)
		if errors.Is(err, store.ErrQueueFull) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		q.b.fail(ctx, "send", q.name, err)
		return fmt.Errorf("send to %s: %w", q.name, err)
	}
	q.b.observeDepth(ctx, q)
	return nil
}

// Receive removes and returns the oldest message, waiting while the queue
// is empty.
func (q *Queue) Receive(ctx context.Context) ([]byte, error) {
	ctx, cancel := withOptionalTimeout(ctx, q.b.receiveTimeout)
	defer cancel()

	var body []byte
	err := q.b.retry(ctx, func() (bool, error) {
		msg, ok, err := q.b.queues.Pop(ctx, q.name)
		if err != nil || !ok {
			return false, err
		}
		body = msg.Body
		return true, nil
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			q.b.fail(ctx, "receive", q.name, err)
		}
		return nil, fmt.Errorf("receive from %s: %w", q.name, err)
	}
	q.b.observeDepth(ctx, q)
	return body, nil
}

// retry runs attempt until it reports done, fails, or ctx ends.
func (b *Broker) retry(ctx context.Context, attempt func() (bool, error)) error {
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		done, err := attempt()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return contextError(ctxErr)
			}
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return contextError(ctx.Err())
		case <-ticker.C:
		}
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (b *Broker) observeDepth(ctx context.Context, q *Queue) {
	if n, err := q.Len(ctx); err == nil {
		metrics.UpdateQueueDepth(q.name, n)
	}
}

func (b *Broker) fail(ctx context.Context, op, queue string, err error) {
	metrics.RecordBrokerError(op)
	b.log.Error(ctx, "queue operation failed",
		logger.String("op", op),
		logger.String("queue", queue),
		logger.Error(err),
	)
}

// Subscribe registers a gesture pattern on the registration queue.
func (b *Broker) Subscribe(ctx context.Context, sub Subscription) error {
	q, err := b.Open(ctx, RegistrationQueueName)
	if err != nil {
		return err
	}
	if err := q.Send(ctx, sub.Marshal()); err != nil {
		return err
	}
	b.log.Debug(ctx, "subscription sent",
		logger.Int("subscriber", sub.SubscriberID),
		logger.String("name", sub.Name),
		logger.String("pattern", string(sub.Pattern)),
	)
	return nil
}

// SubscribeFile registers every pattern in a pattern file for subscriberID
// and returns how many were sent.
func (b *Broker) SubscribeFile(ctx context.Context, path string, subscriberID int) (int, error) {
	patterns, err := gesture.LoadPatternFile(path)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, p := range patterns {
		if err := b.Subscribe(ctx, Subscription{SubscriberID: subscriberID, Name: p.Name, Pattern: p.Gesture}); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Registrations returns the registration queue for draining.
func (b *Broker) Registrations(ctx context.Context) (*Queue, error) {
	return b.Open(ctx, RegistrationQueueName)
}

// NextSubscription blocks until a subscription arrives on q. A payload
// that cannot be decoded is consumed and reported as ErrMalformedMessage.
func (b *Broker) NextSubscription(ctx context.Context, q *Queue) (Subscription, error) {
	body, err := q.Receive(ctx)
	if err != nil {
		return Subscription{}, err
	}
	sub, err := UnmarshalSubscription(body)
	if err != nil {
		b.fail(ctx, "decode", q.name, err)
		return Subscription{}, err
	}
	metrics.RecordSubscriptionReceived()
	return sub, nil
}

// Notify sends a detection to the subscriber's notification queue.
func (b *Broker) Notify(ctx context.Context, subscriberID int, name string) error {
	q, err := b.Open(ctx, NotificationQueueName(subscriberID))
	if err != nil {
		return err
	}
	if err := q.Send(ctx, Detection{Name: name}.Marshal()); err != nil {
		return err
	}
	metrics.RecordDetectionSent()
	return nil
}

// Detections returns the notification queue of subscriberID.
func (b *Broker) Detections(ctx context.Context, subscriberID int) (*Queue, error) {
	return b.Open(ctx, NotificationQueueName(subscriberID))
}

// NextDetection blocks until a detection arrives on q.
func (b *Broker) NextDetection(ctx context.Context, q *Queue) (Detection, error) {
	body, err := q.Receive(ctx)
	if err != nil {
		return Detection{}, err
	}
	d, err := UnmarshalDetection(body)
	if err != nil {
		b.fail(ctx, "decode", q.name, err)
		return Detection{}, err
	}
	return d, nil
}
