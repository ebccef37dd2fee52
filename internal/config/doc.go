// Package config implements stratum's configuration service.
//
// The service is the leaf dependency of every other core service. Typed
// schemas are registered per namespace (elasticsearch, logging, http,
// plugins, dev, stratum, savedObjects, uiSettings) before the configuration
// document is read, so that validation always runs against the full schema
// set. Validation is atomic: the first invalid section fails the whole
// validation pass, and the orchestrator treats that as fatal.
//
// # Lifecycle
//
//  1. RegisterSchema for every namespace (orchestrator, before Setup)
//  2. Load the YAML document from disk
//  3. Validate every registered section, decoding it into its typed struct
//  4. Section/At to hand typed sections to consuming services
//  5. Watch (optional) to re-load and re-validate on file change and notify
//     subscribers, which drives elasticsearch client pool rebuilds
//
// Unregistered namespaces present in the document are tolerated (plugins may
// carry their own configuration), but reading an unregistered namespace
// through Section returns ErrUnknownNamespace.
package config
