// Package config defines the recognizer configuration and its loading layers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Recognition modes.
const (
	ModeSubscriptions = "subscriptions"
	ModeFile          = "file"
)

// Scorer selections.
const (
	ScorerDistance   = "distance"
	ScorerClassifier = "classifier"
	ScorerBoth       = "both"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the inspection HTTP listen address. Empty disables the server.
	Addr string `koanf:"addr"`

	// DataDir holds the shared queue database.
	DataDir string `koanf:"data_dir"`

	// Mode selects between live subscriptions and a static patterns file.
	Mode         string `koanf:"mode"`
	PatternsFile string `koanf:"patterns_file"`

	// Activation gating.
	UseActivation       bool    `koanf:"use_activation"`
	ActivationThreshold float64 `koanf:"activation_threshold"`

	Verbose     bool   `koanf:"verbose"`
	DrawCommand string `koanf:"draw_command"`

	Scorer              string `koanf:"scorer"`
	ClassifierCommand   string `koanf:"classifier_command"`
	ClassifierTimeoutMS int    `koanf:"classifier_timeout_ms"`

	// Converter tuning.
	MovementThresholdSq float64 `koanf:"movement_threshold_sq"`
	GroupingWindowMS    int     `koanf:"grouping_window_ms"`
	PauseWindowMS       int     `koanf:"pause_window_ms"`
	PollIntervalMS      int     `koanf:"poll_interval_ms"`
	AxisRemap           bool    `koanf:"axis_remap"`

	// Matcher thresholds, in percent of the expanded candidate length.
	SingleSensorThresholdPct float64 `koanf:"single_sensor_threshold_pct"`
	DualSensorThresholdPct   float64 `koanf:"dual_sensor_threshold_pct"`
	MLThresholdPct           float64 `koanf:"ml_threshold_pct"`

	// Queue limits.
	QueueMaxDepth       int `koanf:"queue_max_depth"`
	QueueMaxMsgSize     int `koanf:"queue_max_msg_size"`
	QueuePollIntervalMS int `koanf:"queue_poll_interval_ms"`
	QueueSendTimeoutMS  int `koanf:"queue_send_timeout_ms"`

	// TrackerSource is a JSON-lines replay file; "-" reads stdin.
	TrackerSource string `koanf:"tracker_source"`

	Tray      bool   `koanf:"tray"`
	PluginDir string `koanf:"plugin_dir"`
}

// New returns a Config populated with defaults.
func New() *Config {
	dataDir := ".mudra"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mudra")
	}

	return &Config{
		LogLevel:                 "info",
		Addr:                     "",
		DataDir:                  dataDir,
		Mode:                     ModeSubscriptions,
		ActivationThreshold:      0.8,
		Scorer:                   ScorerDistance,
		ClassifierTimeoutMS:      2000,
		MovementThresholdSq:      0.0004,
		GroupingWindowMS:         200,
		PauseWindowMS:            500,
		PollIntervalMS:           10,
		AxisRemap:                true,
		SingleSensorThresholdPct: 25,
		DualSensorThresholdPct:   35,
		MLThresholdPct:           55,
		QueueMaxDepth:            100,
		QueueMaxMsgSize:          1000,
		QueuePollIntervalMS:      20,
		QueueSendTimeoutMS:       0,
		PluginDir:                filepath.Join(dataDir, "plugins"),
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSubscriptions:
	case ModeFile:
		if c.PatternsFile == "" {
			return fmt.Errorf("%w: mode %q requires patterns_file", ErrInvalidConfig, ModeFile)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}

	switch c.Scorer {
	case ScorerDistance:
	case ScorerClassifier, ScorerBoth:
		if c.ClassifierCommand == "" {
			return fmt.Errorf("%w: scorer %q requires classifier_command", ErrInvalidConfig, c.Scorer)
		}
	default:
		return fmt.Errorf("%w: unknown scorer %q", ErrInvalidConfig, c.Scorer)
	}

	positive := map[string]float64{
		"movement_threshold_sq":       c.MovementThresholdSq,
		"grouping_window_ms":          float64(c.GroupingWindowMS),
		"pause_window_ms":             float64(c.PauseWindowMS),
		"poll_interval_ms":            float64(c.PollIntervalMS),
		"single_sensor_threshold_pct": c.SingleSensorThresholdPct,
		"dual_sensor_threshold_pct":   c.DualSensorThresholdPct,
		"ml_threshold_pct":            c.MLThresholdPct,
		"queue_max_depth":             float64(c.QueueMaxDepth),
		"queue_max_msg_size":          float64(c.QueueMaxMsgSize),
		"queue_poll_interval_ms":      float64(c.QueuePollIntervalMS),
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, key)
		}
	}
	if c.ActivationThreshold < 0 || c.ActivationThreshold > 1 {
		return fmt.Errorf("%w: activation_threshold must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// QueueDBPath is the location of the shared queue database.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.DataDir, "queues.db")
}

// Millis converts a millisecond setting into a duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
