// Package persistence stores pending trigger state so it survives a restart.
//
// Each trigger instance owns one Record under a stable key. A Record is
// written whenever a deadline is armed or refreshed and removed when the
// deadline fires or is cancelled. On startup the record is read once and
// reconciled against the current time.
//
// Storage is behind the Repository interface. FileStore keeps one file per
// key in a directory, encoded as JSON or CBOR. MemoryStore keeps records in
// process memory and is useful for volatile namespaces and tests. Registry
// maps namespace names to repositories.
package persistence
