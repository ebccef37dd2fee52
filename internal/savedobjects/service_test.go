package savedobjects

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidatesDeps(t *testing.T) {
	svc := NewService()
	_, err := svc.Setup(SetupDeps{Index: ".stratum"})
	assert.Error(t, err, "missing client source")

	svc = NewService()
	source := fakeBackend(t, func(r *http.Request) (int, string) { return http.StatusOK, `{}` })
	_, err = svc.Setup(SetupDeps{AdminSource: source})
	assert.Error(t, err, "missing index")
}

func TestSetupDefaultsBatchSize(t *testing.T) {
	source := fakeBackend(t, func(r *http.Request) (int, string) { return http.StatusOK, `{}` })
	svc := NewService()
	_, err := svc.Setup(SetupDeps{AdminSource: source, Index: ".stratum"})
	require.NoError(t, err)
	assert.Equal(t, 100, svc.batchSize)
}

func TestStartCreatesMissingIndex(t *testing.T) {
	var methods []string
	source := fakeBackend(t, func(r *http.Request) (int, string) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			return http.StatusNotFound, ``
		}
		assert.Equal(t, "/.stratum", r.URL.Path)
		return http.StatusOK, `{"acknowledged": true}`
	})

	svc := NewService()
	_, err := svc.Setup(SetupDeps{AdminSource: source, Index: ".stratum"})
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), StartDeps{})
	require.NoError(t, err)
	assert.Equal(t, []string{http.MethodHead, http.MethodPut}, methods)
}

func TestStartSkipsExistingIndex(t *testing.T) {
	var methods []string
	source := fakeBackend(t, func(r *http.Request) (int, string) {
		methods = append(methods, r.Method)
		return http.StatusOK, ``
	})

	svc := NewService()
	_, err := svc.Setup(SetupDeps{AdminSource: source, Index: ".stratum"})
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), StartDeps{})
	require.NoError(t, err)
	assert.Equal(t, []string{http.MethodHead}, methods)
}

func TestStartToleratesCreationRace(t *testing.T) {
	source := fakeBackend(t, func(r *http.Request) (int, string) {
		if r.Method == http.MethodHead {
			return http.StatusNotFound, ``
		}
		return http.StatusBadRequest, `{"error": {"type": "resource_already_exists_exception"}}`
	})

	svc := NewService()
	_, err := svc.Setup(SetupDeps{AdminSource: source, Index: ".stratum"})
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), StartDeps{})
	assert.NoError(t, err)
}

func TestScopedClientCopiesIdentityHeaders(t *testing.T) {
	source := fakeBackend(t, func(r *http.Request) (int, string) { return http.StatusOK, `{}` })
	svc := NewService()
	contract, err := svc.Setup(SetupDeps{AdminSource: source, Index: ".stratum"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("Accept-Language", "en")

	client := contract.ScopedClient(req)
	assert.Equal(t, "Bearer abc", client.headers["Authorization"])
	assert.Equal(t, "req-1", client.headers["X-Request-Id"])
	_, tracked := client.headers["Accept-Language"]
	assert.False(t, tracked, "only identity headers are forwarded")
}

func TestScopedClientWithoutRequest(t *testing.T) {
	source := fakeBackend(t, func(r *http.Request) (int, string) { return http.StatusOK, `{}` })
	svc := NewService()
	contract, err := svc.Setup(SetupDeps{AdminSource: source, Index: ".stratum"})
	require.NoError(t, err)

	client := contract.ScopedClient(nil)
	assert.Empty(t, client.headers)
}
