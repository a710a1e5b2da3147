// Package repositories implements SQLite persistence for the local cache database.
//
// Two stores back the CLI:
//   - [TokenRepository] : OAuth token cache, one row per service, so logins survive between runs
//   - [HistoryRepository] : one row per playlist created by the tool
//
// Sequence numbers provide stable, human-readable ordering (e.g., build #42) independent of
// UUIDs and creation timestamps. The [NextSequence] function atomically increments per-table
// sequence counters in dedicated sequence tables.
package repositories
