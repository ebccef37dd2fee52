// Package savedobjects is the persistence abstraction over the backend data
// store.
//
// A saved object is a typed document (type + id + attributes) stored in one
// backend index. Raw document IDs are namespaced as "type:id" so distinct
// types never collide. All access goes through a request-scoped Client
// created per originating request; the client forwards the request's
// identity headers on every backend call and resolves the current admin
// client from the elasticsearch client source at call time.
//
// The index is created during the start phase, before network traffic is
// accepted. Document-level versioning and migrations are out of scope here.
package savedobjects
