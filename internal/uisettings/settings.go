package uisettings

import "errors"

// Saved object coordinates for the persisted user values.
const (
	settingsType = "config"
	settingsID   = "stratum"
)

// Sentinel errors returned by the settings client.
var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrOverridden     = errors.New("setting is overridden by configuration")
)

// Definition describes one registered setting.
type Definition struct {
	// Value is the default returned until a user value is saved.
	Value interface{}
	// Description documents the setting for operators.
	Description string
}
