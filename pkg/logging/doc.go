// Package logging provides the process-wide structured logger for stratum.
//
// Every log call names the subsystem it originates from, so operators can
// filter output per core service (Server, ConfigService, HttpService, ...).
// The package is a thin wrapper over log/slog: Init installs a text or JSON
// handler at a minimum level, and the leveled helpers attach the subsystem
// and optional error as slog attributes.
//
// The bootstrap calls Init twice: once with flag-derived settings before any
// configuration is read, and again once the validated logging configuration
// section is available.
package logging
