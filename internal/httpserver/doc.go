// Package httpserver owns the network listener and route registration.
//
// Routes are registered during setup, keyed to the owning plugin so the
// handler context resolves with the right visibility. The listener is opened
// only during the start phase; until then no traffic is accepted. Stop drains
// in-flight requests within the configured shutdown timeout.
package httpserver
