// Package app bootstraps and runs the stratum server process.
//
// The Application follows a two-phase pattern: NewApplication loads and
// validates everything needed to run (logging, configuration, server
// construction, schema registration), and Run drives the server lifecycle
// until a shutdown signal or context cancellation arrives.
package app
