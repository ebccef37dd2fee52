// Package uisettings manages user-configurable runtime settings.
//
// Settings resolve in three layers: registered defaults (contributed by core
// and plugins during setup), user values persisted as a single saved object,
// and operator overrides from configuration. Overrides always win and cannot
// be changed at runtime. All reads and writes go through a request-scoped
// Client bound to the originating request's saved-objects client, so user
// values are stored under the caller's identity.
package uisettings
