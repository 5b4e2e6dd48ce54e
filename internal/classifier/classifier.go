// Package classifier reaches a trained gesture model running as an external
// process. The process speaks the plugin protocol: it receives the input
// gesture string and candidate names, and answers with its best guess.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/pkg/logger"
)

// ActionClassify is the request action sent to the model process.
const ActionClassify = "classify"

// verdict is the data payload of a successful classify response.
type verdict struct {
	Index      *int    `json:"index"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	ElapsedMS  float64 `json:"elapsed_ms"`
}

// Exec runs an executable per classification.
type Exec struct {
	plugin *plugin.Plugin
	exec   *plugin.Executor
	log    logger.Logger
}

// NewExec creates a classifier backed by command.
func NewExec(command string, timeout time.Duration) *Exec {
	return &Exec{
		plugin: plugin.Command(command),
		exec:   plugin.NewExecutor(timeout),
		log:    logger.NamedOrNop("classifier"),
	}
}

// Classify implements gesture.Classifier.
func (e *Exec) Classify(ctx context.Context, input gesture.String, names []string) (gesture.Classification, error) {
	start := time.Now()
	data, err := e.exec.Call(ctx, e.plugin, &plugin.Request{
		Action:     ActionClassify,
		Input:      string(input),
		Candidates: names,
	})
	if err != nil {
		return gesture.Classification{}, err
	}

	var v verdict
	if err := json.Unmarshal(data, &v); err != nil {
		return gesture.Classification{}, fmt.Errorf("decode classifier verdict: %w", err)
	}
	if v.Index == nil && v.Name == "" {
		return gesture.Classification{}, fmt.Errorf("classifier verdict names no candidate")
	}

	cls := gesture.Classification{
		Index:         -1,
		Name:          v.Name,
		ConfidencePct: v.Confidence,
		Elapsed:       time.Duration(v.ElapsedMS * float64(time.Millisecond)),
	}
	if v.Index != nil {
		cls.Index = *v.Index
	}
	if cls.Elapsed == 0 {
		cls.Elapsed = time.Since(start)
	}

	e.log.Debug(ctx, "classified",
		logger.String("input", string(input)),
		logger.Int("index", cls.Index),
		logger.String("name", cls.Name),
		logger.Float64("confidence", cls.ConfidencePct),
	)
	return cls, nil
}
