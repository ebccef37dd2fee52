package elasticsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratum/internal/config"
)

func newConfigService(t *testing.T) *config.Service {
	t.Helper()
	cfg := config.NewService(filepath.Join(t.TempDir(), "stratum.yaml"))
	require.NoError(t, cfg.RegisterSchema(config.NamespaceElasticsearch, func() config.Schema {
		return &config.ElasticsearchConfig{}
	}))
	require.NoError(t, cfg.Load())
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestSetupPublishesBothPools(t *testing.T) {
	svc := NewService()
	contract, err := svc.Setup(context.Background(), SetupDeps{Config: newConfigService(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	admin, err := contract.AdminSource().Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, admin)

	data, err := contract.DataSource().Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.NotSame(t, admin, data, "admin and data pools are distinct clients")
}

func TestStopIsRepeatable(t *testing.T) {
	svc := NewService()
	_, err := svc.Setup(context.Background(), SetupDeps{Config: newConfigService(t)})
	require.NoError(t, err)

	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))
}

func TestPublishClientsReplacesPools(t *testing.T) {
	svc := NewService()
	contract, err := svc.Setup(context.Background(), SetupDeps{Config: newConfigService(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	before, err := contract.AdminSource().Next(context.Background())
	require.NoError(t, err)

	esCfg := &config.ElasticsearchConfig{}
	esCfg.ApplyDefaults()
	require.NoError(t, svc.publishClients(esCfg))

	after, err := contract.AdminSource().Next(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, before, after, "rebuild must publish a new client")
}

func TestScopedClientForwardsIdentityHeaders(t *testing.T) {
	client := newTestClient(t)

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("Cookie", "secret")

	scoped := NewScopedClient(client, req)
	headers := scoped.Headers()

	assert.Equal(t, "Bearer token", headers["Authorization"])
	assert.Equal(t, "req-1", headers["X-Request-Id"])
	_, hasCookie := headers["Cookie"]
	assert.False(t, hasCookie, "non-identity headers must not be forwarded")

	assert.Same(t, client, scoped.Client())
}

func TestScopedClientWithoutRequest(t *testing.T) {
	scoped := NewScopedClient(newTestClient(t), nil)
	assert.Empty(t, scoped.Headers())
}

func TestScopedClientsAreDistinctPerRequest(t *testing.T) {
	client := newTestClient(t)

	reqA := httptest.NewRequest(http.MethodGet, "/a", nil)
	reqA.Header.Set("Authorization", "Bearer a")
	reqB := httptest.NewRequest(http.MethodGet, "/b", nil)
	reqB.Header.Set("Authorization", "Bearer b")

	scopedA := NewScopedClient(client, reqA)
	scopedB := NewScopedClient(client, reqB)

	assert.NotSame(t, scopedA, scopedB)
	assert.Equal(t, "Bearer a", scopedA.Headers()["Authorization"])
	assert.Equal(t, "Bearer b", scopedB.Headers()["Authorization"])
}
