// Package util provides small helpers shared by the db.KVDB engines and the stores built on them.
//
// The package contains:
//   - functions: the FNV-1a string hash, lock striping and prefix bound calculation
//
// Each helper is independent of a concrete engine, so the same key layout and the same
// lock distribution is used by every storage backend.
package util
