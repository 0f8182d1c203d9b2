// Package store holds the authoritative settings state: desks, each a
// set of named buckets, each an ordered collection of key/value
// entries. It is structured into small files by concern:
//
//   - store.go: core Store type, constructor, CRUD operations, status.
//   - config.go: StoreConfig and package defaults; NewWithConfig applies defaults.
//   - errors.go: error types and helpers (IsDeskNotFound, IsBucketNotFound, ...).
//   - merge.go: merged per-desk view over the global desk.
//   - accessors.go: typed reads with default fallback (Theme, TextOr, FlagOr).
//   - events.go: Event publishing seam (EventPublisher, noop default).
//   - eventpub_memory.go: in-memory publisher for tests.
//   - persist.go: badger-backed persistence and startup reload.
//
// Entry order within a bucket is lexicographic by key, maintained by
// an ordtree so bounded range queries (pagination) come for free.
// External packages should treat this package as the state layer and
// use public methods only.
package store
