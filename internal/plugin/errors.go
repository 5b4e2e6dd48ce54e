package plugin

import "errors"

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrActionNotSupported is returned when a plugin does not declare an action.
	ErrActionNotSupported = errors.New("action not supported by plugin")
	// ErrTimeout is returned when a plugin or hook runs past its timeout.
	ErrTimeout = errors.New("plugin execution timeout")
	// ErrFailed is returned when a plugin answers with success=false.
	ErrFailed = errors.New("plugin reported failure")
)
