// Package state persists the crawl progress of redditcorpus across runs.
//
// Two interchangeable stores keep the checked and included post id sets:
//   - JSONStore writes two JSON arrays of ids, the format the
//     progress files have always used
//   - SQLiteStore keeps the same sets in a SQLite database
//
// The SQLite database (modernc.org/sqlite, no cgo) also holds the run
// history: one row per finished crawl, read back by the history command.
//
// Writes are whole-state and idempotent. Included ids are always stored
// as checked too, so a reloaded state keeps Included a subset of Checked.
package state
