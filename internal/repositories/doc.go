// Package repositories implements SQLite persistence for search and job history.
//
// History is an audit trail. Nothing here is consulted when answering a
// search; every query goes to the network.
//
// Key Implementations:
//   - [SearchRepository] : queries and their ordered result rows
//   - [DownloadRepository] : download and stream jobs with status tracking
//
// Sequence numbers provide stable, human-readable ordering (e.g. search #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
