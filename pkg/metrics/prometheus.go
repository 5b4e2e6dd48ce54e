// Package metrics provides Prometheus metrics for the mudra recognizer.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the recognizer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Converter
	movementEvents    *prometheus.CounterVec
	samplesDropped    *prometheus.CounterVec
	gesturesCompleted prometheus.Counter
	gesturesDiscarded prometheus.Counter

	// Matching
	recognitions       *prometheus.CounterVec
	recognitionLatency prometheus.Histogram
	candidates         prometheus.Gauge

	// Broker
	subscriptionsReceived prometheus.Counter
	detectionsSent        prometheus.Counter
	brokerErrors          *prometheus.CounterVec
	queueDepth            *prometheus.GaugeVec
}

var globalManager *Manager //nolint:gochecknoglobals // package-level recorder functions delegate here

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /metrics

func init() { //nolint:gochecknoinits // global collectors are ready before main runs
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mudra",
		subsystem:        "recognizer",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.movementEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "movement_events_total",
		Help:      "Movement events that passed the hysteresis check, by sensor",
	}, []string{"sensor"})

	m.samplesDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "samples_dropped_total",
		Help:      "Tracker samples ignored by the converter, by reason",
	}, []string{"reason"})

	m.gesturesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gestures_completed_total",
		Help:      "Gesture strings handed off to the recognizer",
	})

	m.gesturesDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gestures_discarded_total",
		Help:      "Single-token buffers cleared at pause time without recognition",
	})

	m.recognitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recognitions_total",
		Help:      "Recognition passes, by scorer and outcome",
	}, []string{"scorer", "matched"})

	m.recognitionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recognition_latency_ms",
		Help:      "Time spent scoring one gesture against all candidates",
		Buckets:   m.histogramBuckets,
	})

	m.candidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates",
		Help:      "Subscribed gestures currently known to the recognizer",
	})

	m.subscriptionsReceived = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscriptions_received_total",
		Help:      "Subscription messages drained from the registration queue",
	})

	m.detectionsSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detections_sent_total",
		Help:      "Detection messages delivered to subscriber queues",
	})

	m.brokerErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broker_errors_total",
		Help:      "Queue operations that failed and were abandoned, by operation",
	}, []string{"op"})

	m.queueDepth = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_depth",
		Help:      "Messages waiting in a named queue at last observation",
	}, []string{"queue"})
}

// RecordMovement counts a movement event for a sensor.
func RecordMovement(sensor int) {
	globalManager.movementEvents.WithLabelValues(strconv.Itoa(sensor)).Inc()
}

// RecordDroppedSample counts an ignored tracker sample.
func RecordDroppedSample(reason string) {
	globalManager.samplesDropped.WithLabelValues(reason).Inc()
}

// RecordGestureCompleted counts a gesture handed to the recognizer.
func RecordGestureCompleted() {
	globalManager.gesturesCompleted.Inc()
}

// RecordGestureDiscarded counts a buffer cleared without handoff.
func RecordGestureDiscarded() {
	globalManager.gesturesDiscarded.Inc()
}

// RecordRecognition counts a scoring pass.
func RecordRecognition(scorer string, matched bool) {
	globalManager.recognitions.WithLabelValues(scorer, strconv.FormatBool(matched)).Inc()
}

// RecordRecognitionLatency observes the time spent scoring, in milliseconds.
func RecordRecognitionLatency(latencyMs float64) {
	globalManager.recognitionLatency.Observe(latencyMs)
}

// UpdateCandidateCount sets the number of known candidates.
func UpdateCandidateCount(count int) {
	globalManager.candidates.Set(float64(count))
}

// RecordSubscriptionReceived counts a drained subscription message.
func RecordSubscriptionReceived() {
	globalManager.subscriptionsReceived.Inc()
}

// RecordDetectionSent counts a delivered detection message.
func RecordDetectionSent() {
	globalManager.detectionsSent.Inc()
}

// RecordBrokerError counts an abandoned queue operation.
func RecordBrokerError(op string) {
	globalManager.brokerErrors.WithLabelValues(op).Inc()
}

// UpdateQueueDepth records the depth of a named queue.
func UpdateQueueDepth(queue string, depth int) {
	globalManager.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
