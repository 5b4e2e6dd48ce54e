package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/mudra/pkg/logger"
)

// ManifestFile is the manifest name expected in every plugin directory.
const ManifestFile = "plugin.json"

// Manager discovers plugins under a directory.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
	log       logger.Logger
}

// NewManager creates a Manager for pluginDir.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
		log:       logger.NamedOrNop("plugin"),
	}
}

// Discover scans pluginDir for subdirectories holding a plugin.json and
// replaces the known plugin set. Unreadable manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("plugin dir %s is not a directory", m.pluginDir)
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		manifest, err := readManifest(filepath.Join(pluginPath, ManifestFile))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			m.log.Warn(ctx, "skipping plugin", logger.String("path", pluginPath), logger.Error(err))
			continue
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       pluginPath,
			Executable: filepath.Join(pluginPath, manifest.Executable),
		}
	}

	return nil
}

func readManifest(path string) (Manifest, error) {
	var manifest Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest, err
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("invalid manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return manifest, errors.New("manifest needs name and executable")
	}
	return manifest, nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}

	return plugin, nil
}

// Resolve returns the named plugin if it declares action.
func (m *Manager) Resolve(name, action string) (*Plugin, error) {
	p, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	if !p.Supports(action) {
		return nil, fmt.Errorf("%w: %s/%s", ErrActionNotSupported, name, action)
	}
	return p, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})

	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
