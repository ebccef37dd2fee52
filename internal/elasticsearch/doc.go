// Package elasticsearch manages the backend data-store client pools.
//
// Two pools exist: the admin pool authenticates with the credentials from
// the elasticsearch configuration section and backs internal persistence
// (saved objects, ui settings); the data pool carries no process-level
// credentials and expects per-request identity headers instead.
//
// Clients are published through a ClientSource: consumers await the next
// available client rather than holding a fixed reference, because a
// configuration reload rebuilds the pools and publishes replacements.
// In-flight requests keep the client they already resolved; only new
// resolutions observe the replacement. Reconnection and retry beyond what
// the underlying transport does is intentionally out of scope.
package elasticsearch
