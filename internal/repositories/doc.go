// Package repositories implements SQLite persistence for the CLI's local state.
//
// Key Implementations:
//   - [ActivityRepository] : the activity log of list mutations, newest first
//   - [SessionRepository] : one stored session per backend URL
//   - [SessionStoreAdapter] : cookie snapshot and pending return path on top of [SessionRepository]
//
// Activities carry sequence numbers for stable, human-readable ordering independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
