package uisettings

import (
	"context"
	"errors"
	"fmt"

	"stratum/internal/savedobjects"
)

// ObjectStore is the slice of the saved-objects client the settings client
// needs.
type ObjectStore interface {
	Get(ctx context.Context, objectType, id string) (*savedobjects.SavedObject, error)
	Create(ctx context.Context, object *savedobjects.SavedObject, opts savedobjects.CreateOptions) (*savedobjects.SavedObject, error)
}

// Client reads and writes settings for one originating request.
type Client struct {
	store     ObjectStore
	defaults  map[string]Definition
	overrides map[string]interface{}
}

// Get resolves one setting: override, then saved user value, then registered
// default. Unknown keys with no saved value yield ErrUnknownSetting.
func (c *Client) Get(ctx context.Context, key string) (interface{}, error) {
	if value, ok := c.overrides[key]; ok {
		return value, nil
	}

	saved, err := c.savedValues(ctx)
	if err != nil {
		return nil, err
	}
	if value, ok := saved[key]; ok {
		return value, nil
	}
	if def, ok := c.defaults[key]; ok {
		return def.Value, nil
	}
	return nil, fmt.Errorf("get setting '%s': %w", key, ErrUnknownSetting)
}

// GetAll returns the resolved value of every known setting, including saved
// keys that have no registered default.
func (c *Client) GetAll(ctx context.Context) (map[string]interface{}, error) {
	saved, err := c.savedValues(ctx)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]interface{}, len(c.defaults)+len(saved))
	for key, def := range c.defaults {
		resolved[key] = def.Value
	}
	for key, value := range saved {
		resolved[key] = value
	}
	for key, value := range c.overrides {
		resolved[key] = value
	}
	return resolved, nil
}

// Set persists a user value. Overridden keys cannot be set.
func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return fmt.Errorf("set setting: key must not be empty")
	}
	if _, ok := c.overrides[key]; ok {
		return fmt.Errorf("set setting '%s': %w", key, ErrOverridden)
	}

	saved, err := c.savedValues(ctx)
	if err != nil {
		return err
	}
	saved[key] = value
	return c.persist(ctx, saved)
}

// Remove drops a saved user value, falling back to the default. Removing a
// key with no saved value is a no-op.
func (c *Client) Remove(ctx context.Context, key string) error {
	if _, ok := c.overrides[key]; ok {
		return fmt.Errorf("remove setting '%s': %w", key, ErrOverridden)
	}

	saved, err := c.savedValues(ctx)
	if err != nil {
		return err
	}
	if _, ok := saved[key]; !ok {
		return nil
	}
	delete(saved, key)
	return c.persist(ctx, saved)
}

// IsOverridden reports whether configuration pins the key.
func (c *Client) IsOverridden(key string) bool {
	_, ok := c.overrides[key]
	return ok
}

func (c *Client) savedValues(ctx context.Context) (map[string]interface{}, error) {
	object, err := c.store.Get(ctx, settingsType, settingsID)
	if errors.Is(err, savedobjects.ErrNotFound) {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if object.Attributes == nil {
		return map[string]interface{}{}, nil
	}
	return object.Attributes, nil
}

func (c *Client) persist(ctx context.Context, values map[string]interface{}) error {
	_, err := c.store.Create(ctx, &savedobjects.SavedObject{
		Type:       settingsType,
		ID:         settingsID,
		Attributes: values,
	}, savedobjects.CreateOptions{Overwrite: true})
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
