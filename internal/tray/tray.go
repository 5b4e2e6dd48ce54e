// Package tray provides a system tray menu for the recognizer: an activation
// toggle and the most recent recognition.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/app"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	last     string
	mu       sync.RWMutex

	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a new Tray instance with the given initial enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		last:    "none",
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// It blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recording")
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem("Last: "+t.last, "Last recognized gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()

	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// Toggle flips the enabled state and notifies the toggle callback.
func (t *Tray) Toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// outside the lock, the callback may call back into the tray
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Observe records a recognition outcome as the last gesture. It has the
// signature expected by app.App.OnResult.
func (t *Tray) Observe(o app.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = describe(o)
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle("Last: " + t.last)
	}
}

// LastGesture returns the text shown for the last recognition.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func describe(o app.Outcome) string {
	res, ok := o.Decisive()
	if !ok {
		return "none"
	}
	if !res.Matched {
		return fmt.Sprintf("no match (%s)", o.Gesture)
	}
	return res.Closest.Name
}
