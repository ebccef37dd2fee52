package contexts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratum/internal/dependency"
)

func testRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/test", nil)
}

func TestOwnerToken(t *testing.T) {
	var zero OwnerToken
	assert.False(t, zero.Valid())

	tok := NewOwnerToken("core")
	assert.True(t, tok.Valid())
	assert.Equal(t, "core", tok.String())

	// Two tokens with the same label are still distinct identities.
	other := NewOwnerToken("core")
	assert.NotEqual(t, tok, other)
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry(nil)
	tok := NewOwnerToken("test")
	provider := func(ctx context.Context, req *http.Request) (interface{}, error) { return 1, nil }

	assert.Error(t, reg.Register(OwnerToken{}, "", "a", provider), "zero token must be rejected")
	assert.Error(t, reg.Register(tok, "", "", provider), "empty name must be rejected")
	assert.Error(t, reg.Register(tok, "", "a", nil), "nil provider must be rejected")

	require.NoError(t, reg.Register(tok, "", "a", provider))
	assert.Error(t, reg.Register(tok, "", "a", provider), "duplicate name must be rejected")
}

func TestHandlerContextResolvesLazilyOnce(t *testing.T) {
	reg := NewRegistry(nil)
	tok := NewOwnerToken("test")

	calls := 0
	require.NoError(t, reg.Register(tok, "", "counter", func(ctx context.Context, req *http.Request) (interface{}, error) {
		calls++
		return calls, nil
	}))

	hctx := reg.NewHandlerContext(context.Background(), testRequest(), "")
	assert.Equal(t, 0, calls, "provider must not run before first Get")

	v1, err := hctx.Get("counter")
	require.NoError(t, err)
	v2, err := hctx.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls, "provider must run at most once per request")

	// A second request gets its own resolution.
	hctx2 := reg.NewHandlerContext(context.Background(), testRequest(), "")
	v3, err := hctx2.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, 2, v3)
}

func TestHandlerContextProviderError(t *testing.T) {
	reg := NewRegistry(nil)
	tok := NewOwnerToken("test")
	boom := errors.New("boom")

	require.NoError(t, reg.Register(tok, "", "failing", func(ctx context.Context, req *http.Request) (interface{}, error) {
		return nil, boom
	}))

	hctx := reg.NewHandlerContext(context.Background(), testRequest(), "")
	_, err := hctx.Get("failing")
	assert.ErrorIs(t, err, boom)

	_, err = hctx.Get("unregistered")
	assert.Error(t, err)
}

func TestVisibilityScoping(t *testing.T) {
	g := dependency.New()
	g.AddNode(dependency.Node{ID: "data", Kind: dependency.KindPlugin})
	g.AddNode(dependency.Node{ID: "visualize", Kind: dependency.KindPlugin, DependsOn: []dependency.PluginID{"data"}})
	g.AddNode(dependency.Node{ID: "telemetry", Kind: dependency.KindPlugin})

	reg := NewRegistry(g)
	coreTok := NewOwnerToken("core")
	dataTok := NewOwnerToken("data")
	telemetryTok := NewOwnerToken("telemetry")

	value := func(v interface{}) ProviderFunc {
		return func(ctx context.Context, req *http.Request) (interface{}, error) { return v, nil }
	}

	require.NoError(t, reg.Register(coreTok, "", "core", value("core")))
	require.NoError(t, reg.Register(dataTok, "data", "search", value("search")))
	require.NoError(t, reg.Register(telemetryTok, "telemetry", "usage", value("usage")))

	// visualize depends on data: sees core + search, not usage.
	hctx := reg.NewHandlerContext(context.Background(), testRequest(), "visualize")

	_, err := hctx.Get("core")
	assert.NoError(t, err, "core providers are visible to every plugin")

	_, err = hctx.Get("search")
	assert.NoError(t, err, "providers of transitive dependencies are visible")

	_, err = hctx.Get("usage")
	assert.Error(t, err, "providers of unrelated plugins must be hidden")

	assert.Equal(t, []string{"core", "search"}, reg.Names("visualize"))

	// Core routes observe everything.
	assert.Equal(t, []string{"core", "search", "usage"}, reg.Names(""))
}

func TestConcurrentRequestsGetDistinctInstances(t *testing.T) {
	reg := NewRegistry(nil)
	tok := NewOwnerToken("test")

	type scoped struct{ n int }
	n := 0
	require.NoError(t, reg.Register(tok, "", "scoped", func(ctx context.Context, req *http.Request) (interface{}, error) {
		n++
		return &scoped{n: n}, nil
	}))

	a, err := reg.NewHandlerContext(context.Background(), testRequest(), "").Get("scoped")
	require.NoError(t, err)
	b, err := reg.NewHandlerContext(context.Background(), testRequest(), "").Get("scoped")
	require.NoError(t, err)

	assert.NotSame(t, a.(*scoped), b.(*scoped), "concurrent requests must receive distinct scoped instances")
}

func TestServiceSetup(t *testing.T) {
	svc := NewService()
	contract := svc.Setup(SetupDeps{PluginGraph: dependency.New()})
	require.NotNil(t, contract)
	require.NotNil(t, contract.Registry())

	tok := NewOwnerToken("test")
	err := contract.RegisterContext(tok, "", "x", func(ctx context.Context, req *http.Request) (interface{}, error) {
		return "x", nil
	})
	assert.NoError(t, err)
}
