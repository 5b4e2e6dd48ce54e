// Package plugin runs external executables that read one JSON request on
// stdin and write one JSON response on stdout. Subscribers use plugins as
// actions for detected gestures and the recognizer uses the same protocol
// to reach an external classifier.
package plugin

import (
	"encoding/json"
	"slices"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Request is sent to a plugin for execution.
type Request struct {
	Action string `json:"action"`
	// Gesture is the name of a detected gesture.
	Gesture string `json:"gesture,omitempty"`
	// Input is a gesture string to classify.
	Input      string          `json:"input,omitempty"`
	Candidates []string        `json:"candidates,omitempty"`
	Subscriber int             `json:"subscriber,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
}

// Response is returned by a plugin.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered or ad hoc executable.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Command wraps a bare executable path as a plugin that accepts any action.
func Command(path string) *Plugin {
	return &Plugin{
		Manifest:   Manifest{Name: path, Executable: path},
		Executable: path,
	}
}

// Supports reports whether the plugin declares action. A plugin without an
// action list accepts everything.
func (p *Plugin) Supports(action string) bool {
	return len(p.Manifest.Actions) == 0 || slices.Contains(p.Manifest.Actions, action)
}
