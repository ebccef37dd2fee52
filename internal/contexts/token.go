package contexts

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerToken identifies a context-provider registrant. Tokens are opaque:
// the holder proves identity by possession, not by a well-known name, so
// nothing outside the token's creator can register or shadow providers on
// its behalf. The zero value is invalid.
type OwnerToken struct {
	id    string
	label string
}

// NewOwnerToken creates a fresh token. The label only appears in error
// messages and logs.
func NewOwnerToken(label string) OwnerToken {
	return OwnerToken{id: uuid.NewString(), label: label}
}

// Valid reports whether the token was created through NewOwnerToken.
func (t OwnerToken) Valid() bool {
	return t.id != ""
}

// String returns the label; the identifier itself stays opaque.
func (t OwnerToken) String() string {
	if t.label != "" {
		return t.label
	}
	return fmt.Sprintf("owner-%.8s", t.id)
}
