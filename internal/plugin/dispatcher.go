package plugin

import (
	"context"
	"encoding/json"

	"github.com/ayusman/mudra/pkg/logger"
)

// Dispatcher runs one plugin action for every detection a subscriber
// receives.
type Dispatcher struct {
	plugin *Plugin
	action string
	params json.RawMessage
	exec   *Executor
	log    logger.Logger
}

// NewDispatcher resolves pluginName/action through m.
func NewDispatcher(m *Manager, exec *Executor, pluginName, action string, params json.RawMessage) (*Dispatcher, error) {
	p, err := m.Resolve(pluginName, action)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		plugin: p,
		action: action,
		params: params,
		exec:   exec,
		log:    logger.NamedOrNop("dispatch"),
	}, nil
}

// Dispatch runs the action for a detected gesture name.
func (d *Dispatcher) Dispatch(ctx context.Context, subscriberID int, gestureName string) error {
	_, err := d.exec.Call(ctx, d.plugin, &Request{
		Action:     d.action,
		Gesture:    gestureName,
		Subscriber: subscriberID,
		Params:     d.params,
	})
	if err != nil {
		d.log.Error(ctx, "plugin action failed",
			logger.String("plugin", d.plugin.Manifest.Name),
			logger.String("action", d.action),
			logger.String("gesture", gestureName),
			logger.Error(err),
		)
		return err
	}
	d.log.Info(ctx, "plugin action ran",
		logger.String("plugin", d.plugin.Manifest.Name),
		logger.String("action", d.action),
		logger.String("gesture", gestureName),
	)
	return nil
}
