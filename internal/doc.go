// Package internal contains the implementation packages for vue-explore.
//
// These packages follow Go's internal package convention and are only
// imported by the vue-explore command tree.
//
// # Package Organization
//
//   - reactive: observed objects and sequences, watchers and change delivery
//   - dirty: snapshot-based dirty checking of plain Go containers
//   - document: YAML and JSON document loading, encoding and in-place sync
//   - script: mutation scripts applied to an observed document
//   - filter: expressions selecting which changes are reported
//   - watcher: debounced file system notifications for polled documents
//   - config: configuration loading, environment binding and validation
//   - errors: structured errors with codes, types and context
//   - logging: structured logging shared by every package
//   - testutils: helpers shared by the test suites
//   - version: build information
//
// # Data Flow
//
// The observe command loads a document, hands it to a reactive.Engine and
// drives it with a script; every change reaching a watcher is printed. The
// poll command keeps a plain document in memory, syncs it from disk when
// the watcher reports a write and lets a dirty.Checker report what moved.
//
// # Concurrency
//
// A reactive.Engine is not safe for concurrent use; callers serialize
// access to it. A dirty.Checker locks its own entry list and can share a
// lock with the code mutating the watched values through WithLocker.
package internal
