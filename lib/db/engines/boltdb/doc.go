// Package boltdb implements the db.KVDB interface on top of the bolt B+tree engine
// (github.com/boltdb/bolt). All entries live in a single bucket, the table namespace
// is encoded into the key by the store layer.
//
// Bolt serializes write transactions, so every Set and Delete is atomic. Prefix scans
// are materialized inside one read transaction and therefore see a consistent snapshot.
package boltdb
