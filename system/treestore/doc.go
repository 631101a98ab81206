// Package treestore persists tree snapshots by id.
//
// Both stores implement stream.Persister: SQLite keeps trees in a single
// table of a modernc.org/sqlite database, and Memory keeps their JSON form
// in a map for tests and one-shot CLI runs. Loads of an unknown id return a
// nil tree and no error.
package treestore
