package uisettings

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratum/internal/savedobjects"
)

// memoryStore keeps the settings document in memory.
type memoryStore struct {
	attributes map[string]interface{}
	getErr     error
}

func (m *memoryStore) Get(ctx context.Context, objectType, id string) (*savedobjects.SavedObject, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.attributes == nil {
		return nil, savedobjects.ErrNotFound
	}
	copied := make(map[string]interface{}, len(m.attributes))
	for k, v := range m.attributes {
		copied[k] = v
	}
	return &savedobjects.SavedObject{Type: objectType, ID: id, Attributes: copied}, nil
}

func (m *memoryStore) Create(ctx context.Context, object *savedobjects.SavedObject, opts savedobjects.CreateOptions) (*savedobjects.SavedObject, error) {
	m.attributes = object.Attributes
	return object, nil
}

func startedClient(t *testing.T, store ObjectStore, overrides map[string]interface{}, defaults map[string]Definition) *Client {
	t.Helper()
	svc := NewService()
	setup, err := svc.Setup(SetupDeps{Overrides: overrides})
	require.NoError(t, err)
	for key, def := range defaults {
		require.NoError(t, setup.RegisterDefault(key, def))
	}

	start, err := svc.Start(context.Background(), StartDeps{
		StoreFor: func(req *http.Request) ObjectStore { return store },
	})
	require.NoError(t, err)
	return start.ClientFor(nil)
}

func TestGetResolutionOrder(t *testing.T) {
	store := &memoryStore{attributes: map[string]interface{}{
		"theme":    "saved-dark",
		"language": "saved-de",
	}}
	client := startedClient(t, store,
		map[string]interface{}{"theme": "pinned-light"},
		map[string]Definition{
			"theme":    {Value: "default-light"},
			"language": {Value: "default-en"},
			"pageSize": {Value: 20},
		})

	ctx := context.Background()

	theme, err := client.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "pinned-light", theme, "override beats saved value")

	language, err := client.Get(ctx, "language")
	require.NoError(t, err)
	assert.Equal(t, "saved-de", language, "saved value beats default")

	pageSize, err := client.Get(ctx, "pageSize")
	require.NoError(t, err)
	assert.Equal(t, 20, pageSize, "default applies when nothing is saved")

	_, err = client.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownSetting)
}

func TestGetWithoutSavedDocument(t *testing.T) {
	client := startedClient(t, &memoryStore{}, nil,
		map[string]Definition{"theme": {Value: "light"}})

	theme, err := client.Get(context.Background(), "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", theme)
}

func TestGetAll(t *testing.T) {
	store := &memoryStore{attributes: map[string]interface{}{
		"language": "de",
		"extra":    true,
	}}
	client := startedClient(t, store,
		map[string]interface{}{"theme": "pinned"},
		map[string]Definition{
			"theme":    {Value: "light"},
			"language": {Value: "en"},
		})

	all, err := client.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"theme":    "pinned",
		"language": "de",
		"extra":    true,
	}, all)
}

func TestSetPersistsValue(t *testing.T) {
	store := &memoryStore{}
	client := startedClient(t, store, nil,
		map[string]Definition{"theme": {Value: "light"}})

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "theme", "dark"))

	theme, err := client.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
	assert.Equal(t, "dark", store.attributes["theme"])
}

func TestSetOverriddenKeyFails(t *testing.T) {
	client := startedClient(t, &memoryStore{},
		map[string]interface{}{"theme": "pinned"}, nil)

	err := client.Set(context.Background(), "theme", "dark")
	assert.ErrorIs(t, err, ErrOverridden)
}

func TestRemoveRestoresDefault(t *testing.T) {
	store := &memoryStore{attributes: map[string]interface{}{"theme": "dark"}}
	client := startedClient(t, store, nil,
		map[string]Definition{"theme": {Value: "light"}})

	ctx := context.Background()
	require.NoError(t, client.Remove(ctx, "theme"))

	theme, err := client.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", theme)

	// Removing again is a no-op.
	require.NoError(t, client.Remove(ctx, "theme"))
}

func TestIsOverridden(t *testing.T) {
	client := startedClient(t, &memoryStore{},
		map[string]interface{}{"theme": "pinned"}, nil)

	assert.True(t, client.IsOverridden("theme"))
	assert.False(t, client.IsOverridden("language"))
}

func TestRegisterDefaultValidation(t *testing.T) {
	svc := NewService()
	setup, err := svc.Setup(SetupDeps{})
	require.NoError(t, err)

	assert.Error(t, setup.RegisterDefault("", Definition{}))
	require.NoError(t, setup.RegisterDefault("theme", Definition{Value: "light"}))
	assert.Error(t, setup.RegisterDefault("theme", Definition{Value: "dark"}), "duplicate key")

	_, err = svc.Start(context.Background(), StartDeps{
		StoreFor: func(req *http.Request) ObjectStore { return &memoryStore{} },
	})
	require.NoError(t, err)
	assert.Error(t, setup.RegisterDefault("late", Definition{}), "registry closes at start")
}

func TestStartRequiresStoreFactory(t *testing.T) {
	svc := NewService()
	_, err := svc.Setup(SetupDeps{})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), StartDeps{})
	assert.Error(t, err)
}
