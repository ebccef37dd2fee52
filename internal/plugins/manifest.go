package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"stratum/internal/dependency"
)

// ManifestFileName is the file looked up in each plugin directory.
const ManifestFileName = "plugin.yaml"

var pluginIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Manifest declares one plugin and its dependencies.
type Manifest struct {
	ID              dependency.PluginID   `yaml:"id"`
	Version         string                `yaml:"version"`
	RequiredPlugins []dependency.PluginID `yaml:"requiredPlugins,omitempty"`
	OptionalPlugins []dependency.PluginID `yaml:"optionalPlugins,omitempty"`
}

func (m *Manifest) validate() error {
	if m.ID == "" {
		return fmt.Errorf("manifest is missing 'id'")
	}
	if !pluginIDPattern.MatchString(string(m.ID)) {
		return fmt.Errorf("plugin id '%s' is invalid; ids match %s", m.ID, pluginIDPattern)
	}
	if m.Version == "" {
		return fmt.Errorf("plugin '%s': manifest is missing 'version'", m.ID)
	}
	for _, dep := range m.RequiredPlugins {
		if dep == m.ID {
			return fmt.Errorf("plugin '%s' depends on itself", m.ID)
		}
	}
	return nil
}

func parseManifest(path string, raw []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// discoverManifests scans the given roots for plugin directories and reads
// their manifests concurrently. Missing roots are skipped; a malformed
// manifest or duplicate plugin id fails the whole discovery.
func discoverManifests(ctx context.Context, roots []string) ([]Manifest, error) {
	var paths []string
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan plugin root '%s': %w", root, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			manifest := filepath.Join(root, entry.Name(), ManifestFileName)
			if _, err := os.Stat(manifest); err == nil {
				paths = append(paths, manifest)
			}
		}
	}

	var mu sync.Mutex
	manifests := make([]Manifest, 0, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			m, err := parseManifest(path, raw)
			if err != nil {
				return err
			}
			mu.Lock()
			manifests = append(manifests, m)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(manifests, func(i, j int) bool { return manifests[i].ID < manifests[j].ID })

	seen := make(map[dependency.PluginID]bool, len(manifests))
	for _, m := range manifests {
		if seen[m.ID] {
			return nil, fmt.Errorf("plugin '%s' is declared more than once", m.ID)
		}
		seen[m.ID] = true
	}
	return manifests, nil
}
