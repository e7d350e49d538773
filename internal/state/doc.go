// Package state persists build history in a local SQLite database: one row
// per build run and the content fingerprint of every item it rendered, so a
// build can report which items were added, changed or removed since the last
// successful run. Builds run from a git checkout also record its HEAD revision.
package state
