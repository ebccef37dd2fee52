// Package server is the root orchestrator of the platform.
//
// The Server constructs every core service and drives them through the
// setup, start and stop phases in a fixed order, threading each service's
// contract into its dependents. Phases advance strictly forward through
// Created, Configured, SetUp, Started and Stopped; no phase runs twice and
// nothing re-enters an earlier phase after Stop.
//
// Setup wires the service graph and registers the core routes and the
// "core" request context, but accepts no traffic. Start brings the backing
// services up and opens the listener last, so no request ever races
// initialization. Stop tears down in reverse dependency order, best effort:
// every service is asked to stop even when an earlier one fails.
package server
