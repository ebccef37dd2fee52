// Package capabilities computes per-request feature capability sets.
//
// Plugins contribute capabilities through providers during setup; providers
// declare which features exist and their default state. Switchers run at
// resolve time against the originating request and may flip existing
// capabilities off (or back on), but can never introduce new ones. Every
// resolve produces a fresh set, so handlers may mutate their copy freely.
package capabilities
