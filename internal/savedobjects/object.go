package savedobjects

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors returned by the saved-objects client.
var (
	ErrNotFound = errors.New("saved object not found")
	ErrConflict = errors.New("saved object already exists")
)

// SavedObject is one typed persisted document.
type SavedObject struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// rawDocument is the backend representation of a saved object.
type rawDocument struct {
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// rawID namespaces the document ID by type so types cannot collide.
func rawID(objectType, id string) string {
	return objectType + ":" + id
}

// splitRawID recovers type and id from a raw document ID.
func splitRawID(raw string) (objectType, id string, err error) {
	idx := strings.Index(raw, ":")
	if idx <= 0 || idx == len(raw)-1 {
		return "", "", fmt.Errorf("malformed saved object id '%s'", raw)
	}
	return raw[:idx], raw[idx+1:], nil
}

// validateTypeAndID rejects inputs that would produce ambiguous raw IDs.
func validateTypeAndID(objectType, id string) error {
	if objectType == "" {
		return fmt.Errorf("saved object type must not be empty")
	}
	if strings.Contains(objectType, ":") {
		return fmt.Errorf("saved object type '%s' must not contain ':'", objectType)
	}
	if id == "" {
		return fmt.Errorf("saved object id must not be empty")
	}
	return nil
}
