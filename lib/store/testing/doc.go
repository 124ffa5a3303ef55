// Package testing provides the conformance suite for store.IStore implementations.
//
// RunStoreTests checks the contract every backend must satisfy to be interchangeable:
// overwrite returns the previous value, Del is idempotent, Contains agrees with Get,
// GetAll and GetIter are complete, tables are isolated, table names with the separator
// are rejected and concurrent writers never observe torn values. Implementations that
// enumerate in key order additionally run the sorted order checks.
//
// Example usage:
//
//	storetesting.RunStoreTests(t, "LocalStore", func() store.IStore {
//		return lstore.NewLocalStore()
//	}, storetesting.Options{})
package testing
