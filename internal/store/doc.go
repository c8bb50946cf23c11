// Package store provides SQLite-backed storage for published reports.
//
// The store holds two tables:
//   - artifacts: finished documents keyed by their content identifier
//   - reports: one metadata record per published composition
//
// Store implements compose.Uploader for the local backend and
// compose.RecordStore for every backend, so remote uploads are still
// recorded locally.
//
// # Idempotency
//
// Artifacts use ON CONFLICT(content_id) DO NOTHING: uploading identical bytes
// twice keeps the first row and returns the same identifier. Records use
// ON CONFLICT(id) DO NOTHING on the composition ID.
//
// # Ordering
//
// Record listings are ordered by seq, the insertion counter, never by
// timestamps, so results are stable when two reports share a composition time.
//
// # Connections
//
// Pragmas travel in the go-sqlite3 DSN so every pooled connection gets them:
// WAL journaling, synchronous=NORMAL, a 5 s busy timeout and foreign keys.
// Schema changes past schema.sql are versioned through PRAGMA user_version.
package store
