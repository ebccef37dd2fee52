package plugins

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratum/internal/api"
	"stratum/internal/dependency"
)

type fakePlugin struct {
	id    dependency.PluginID
	log   *[]string
	fail  string // phase to fail in: "setup", "start", "stop"
	setup func(core *api.CoreSetup, deps DepContracts)
	start func(deps DepContracts)
}

func (p *fakePlugin) Setup(core *api.CoreSetup, deps DepContracts) (interface{}, error) {
	*p.log = append(*p.log, "setup:"+string(p.id))
	if p.fail == "setup" {
		return nil, errors.New("setup failed")
	}
	if p.setup != nil {
		p.setup(core, deps)
	}
	return "setup-contract:" + string(p.id), nil
}

func (p *fakePlugin) Start(ctx context.Context, core *api.CoreStart, deps DepContracts) (interface{}, error) {
	*p.log = append(*p.log, "start:"+string(p.id))
	if p.fail == "start" {
		return nil, errors.New("start failed")
	}
	if p.start != nil {
		p.start(deps)
	}
	return "start-contract:" + string(p.id), nil
}

func (p *fakePlugin) Stop(ctx context.Context) error {
	*p.log = append(*p.log, "stop:"+string(p.id))
	if p.fail == "stop" {
		return errors.New("stop failed")
	}
	return nil
}

func writeManifest(t *testing.T, root, dir, content string) {
	t.Helper()
	pluginDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, ManifestFileName), []byte(content), 0o644))
}

func TestDiscoverReadsManifests(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\nversion: 1.0.0\n")
	writeManifest(t, root, "beta", "id: beta\nversion: 2.0.0\nrequiredPlugins: [alpha]\n")

	svc := NewService()
	graph, err := svc.Discover(context.Background(), DiscoverDeps{Dirs: []string{root}})
	require.NoError(t, err)

	assert.Equal(t, 2, graph.Len())
	assert.Equal(t, []dependency.PluginID{"alpha"}, graph.Dependencies("beta"))
}

func TestDiscoverSkipsMissingRoot(t *testing.T) {
	svc := NewService()
	graph, err := svc.Discover(context.Background(), DiscoverDeps{
		Dirs: []string{filepath.Join(t.TempDir(), "does-not-exist")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, graph.Len())
}

func TestDiscoverRejectsDuplicateID(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeManifest(t, first, "alpha", "id: alpha\nversion: 1.0.0\n")
	writeManifest(t, second, "also-alpha", "id: alpha\nversion: 2.0.0\n")

	_, err := NewService().Discover(context.Background(), DiscoverDeps{Dirs: []string{first, second}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared more than once")
}

func TestDiscoverRejectsBadManifest(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"missing id", "version: 1.0.0\n"},
		{"missing version", "id: alpha\n"},
		{"bad id", "id: 'no spaces allowed'\nversion: 1.0.0\n"},
		{"self dependency", "id: alpha\nversion: 1.0.0\nrequiredPlugins: [alpha]\n"},
		{"not yaml", "{{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeManifest(t, root, "p", tt.manifest)
			_, err := NewService().Discover(context.Background(), DiscoverDeps{Dirs: []string{root}})
			assert.Error(t, err)
		})
	}
}

func TestDiscoverRejectsMissingRequiredPlugin(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "beta", "id: beta\nversion: 1.0.0\nrequiredPlugins: [ghost]\n")

	_, err := NewService().Discover(context.Background(), DiscoverDeps{Dirs: []string{root}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing plugin 'ghost'")
}

func TestDiscoverRejectsCycle(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "a", "id: a\nversion: 1.0.0\nrequiredPlugins: [b]\n")
	writeManifest(t, root, "b", "id: b\nversion: 1.0.0\nrequiredPlugins: [a]\n")

	_, err := NewService().Discover(context.Background(), DiscoverDeps{Dirs: []string{root}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestDiscoverAddsLegacyBridge(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\nversion: 1.0.0\n")

	svc := NewService()
	graph, err := svc.Discover(context.Background(), DiscoverDeps{
		Dirs:           []string{root},
		LegacyBridgeID: "legacy",
	})
	require.NoError(t, err)

	bridge := graph.Get("legacy")
	require.NotNil(t, bridge)
	assert.Equal(t, dependency.KindLegacyBridge, bridge.Kind)
	assert.Equal(t, []dependency.PluginID{"alpha"}, graph.Dependencies("legacy"))
	assert.Empty(t, graph.Dependents("legacy"))
}

func registeredService(t *testing.T, root string, log *[]string, ids ...dependency.PluginID) *Service {
	t.Helper()
	svc := NewService()
	for _, id := range ids {
		id := id
		require.NoError(t, svc.RegisterFactory(id, func() Plugin {
			return &fakePlugin{id: id, log: log}
		}))
	}
	return svc
}

func TestLifecycleOrder(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\nversion: 1.0.0\n")
	writeManifest(t, root, "beta", "id: beta\nversion: 1.0.0\nrequiredPlugins: [alpha]\n")
	writeManifest(t, root, "gamma", "id: gamma\nversion: 1.0.0\nrequiredPlugins: [beta]\n")

	var log []string
	svc := registeredService(t, root, &log, "alpha", "beta", "gamma")
	_, err := svc.Discover(context.Background(), DiscoverDeps{Dirs: []string{root}, Initialize: true})
	require.NoError(t, err)

	require.NoError(t, svc.Setup(&api.CoreSetup{}))
	require.NoError(t, svc.Start(context.Background(), &api.CoreStart{}))
	require.NoError(t, svc.Stop(context.Background()))

	assert.Equal(t, []string{
		"setup:alpha", "setup:beta", "setup:gamma",
		"start:alpha", "start:beta", "start:gamma",
		"stop:gamma", "stop:beta", "stop:alpha",
	}, log)
}

func TestDependencyContractsThreaded(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\nversion: 1.0.0\n")
	writeManifest(t, root, "beta", "id: beta\nversion: 1.0.0\nrequiredPlugins: [alpha]\n")

	var log []string
	var setupDeps, startDeps DepContracts

	svc := NewService()
	require.NoError(t, svc.RegisterFactory("alpha", func() Plugin {
		return &fakePlugin{id: "alpha", log: &log}
	}))
	require.NoError(t, svc.RegisterFactory("beta", func() Plugin {
		return &fakePlugin{
			id:  "beta",
			log: &log,
			setup: func(core *api.CoreSetup, deps DepContracts) { setupDeps = deps },
			start: func(deps DepContracts) { startDeps = deps },
		}
	}))

	_, err := svc.Discover(context.Background(), DiscoverDeps{Dirs: []string{root}, Initialize: true})
	require.NoError(t, err)
	require.NoError(t, svc.Setup(&api.CoreSetup{}))
	require.NoError(t, svc.Start(context.Background(), &api.CoreStart{}))

	assert.Equal(t, "setup-contract:alpha", setupDeps["alpha"])
	assert.Equal(t, "start-contract:alpha", startDeps["alpha"])
}

func TestMissingFactoryCascadesDisable(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\nversion: 1.0.0\n")
	writeManifest(t, root, "beta", "id: beta\nversion: 1.0.0\nrequiredPlugins: [alpha]\n")
	writeManifest(t, root, "gamma", "id: gamma\nversion: 1.0.0\noptionalPlugins: [alpha]\n")

	var log []string
	svc := NewService()
	// Only beta and gamma have implementations; alpha does not.
	for _, id := range []dependency.PluginID{"beta", "gamma"} {
		id := id
		require.NoError(t, svc.RegisterFactory(id, func() Plugin {
			return &fakePlugin{id: id, log: &log}
		}))
	}

	_, err := svc.Discover(context.Background(), DiscoverDeps{Dirs: []string{root}, Initialize: true})
	require.NoError(t, err)

	assert.Equal(t, []dependency.PluginID{"gamma"}, svc.Enabled(),
		"alpha has no implementation and beta requires alpha")

	require.NoError(t, svc.Setup(&api.CoreSetup{}))
	assert.Equal(t, []string{"setup:gamma"}, log)
}

func TestInitializeFalseSkipsLifecycle(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\nversion: 1.0.0\n")

	var log []string
	svc := registeredService(t, root, &log, "alpha")
	_, err := svc.Discover(context.Background(), DiscoverDeps{Dirs: []string{root}, Initialize: false})
	require.NoError(t, err)

	require.NoError(t, svc.Setup(&api.CoreSetup{}))
	require.NoError(t, svc.Start(context.Background(), &api.CoreStart{}))
	require.NoError(t, svc.Stop(context.Background()))
	assert.Empty(t, log)
}

func TestSetupFailureAborts(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\nversion: 1.0.0\n")
	writeManifest(t, root, "beta", "id: beta\nversion: 1.0.0\nrequiredPlugins: [alpha]\n")

	var log []string
	svc := NewService()
	require.NoError(t, svc.RegisterFactory("alpha", func() Plugin {
		return &fakePlugin{id: "alpha", log: &log, fail: "setup"}
	}))
	require.NoError(t, svc.RegisterFactory("beta", func() Plugin {
		return &fakePlugin{id: "beta", log: &log}
	}))

	_, err := svc.Discover(context.Background(), DiscoverDeps{Dirs: []string{root}, Initialize: true})
	require.NoError(t, err)

	err = svc.Setup(&api.CoreSetup{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin 'alpha' setup")
	assert.Equal(t, []string{"setup:alpha"}, log, "beta must not be set up")
}

func TestStopCollectsErrorsAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\nversion: 1.0.0\n")
	writeManifest(t, root, "beta", "id: beta\nversion: 1.0.0\n")

	var log []string
	svc := NewService()
	require.NoError(t, svc.RegisterFactory("alpha", func() Plugin {
		return &fakePlugin{id: "alpha", log: &log, fail: "stop"}
	}))
	require.NoError(t, svc.RegisterFactory("beta", func() Plugin {
		return &fakePlugin{id: "beta", log: &log}
	}))

	_, err := svc.Discover(context.Background(), DiscoverDeps{Dirs: []string{root}, Initialize: true})
	require.NoError(t, err)
	require.NoError(t, svc.Setup(&api.CoreSetup{}))

	err = svc.Stop(context.Background())
	require.Error(t, err)
	assert.Contains(t, log, "stop:alpha")
	assert.Contains(t, log, "stop:beta", "failing sibling must not block other stops")

	assert.NoError(t, svc.Stop(context.Background()))
}

func TestRegisterFactoryValidation(t *testing.T) {
	svc := NewService()
	assert.Error(t, svc.RegisterFactory("", func() Plugin { return nil }))
	assert.Error(t, svc.RegisterFactory("alpha", nil))
	require.NoError(t, svc.RegisterFactory("alpha", func() Plugin { return nil }))
	assert.Error(t, svc.RegisterFactory("alpha", func() Plugin { return nil }), "duplicate")

	_, err := svc.Discover(context.Background(), DiscoverDeps{})
	require.NoError(t, err)
	assert.Error(t, svc.RegisterFactory("late", func() Plugin { return nil }), "after discovery")
}

func TestSetupBeforeDiscoveryFails(t *testing.T) {
	assert.Error(t, NewService().Setup(&api.CoreSetup{}))
}
