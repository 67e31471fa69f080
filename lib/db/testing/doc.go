// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - testing: A test suite for validating conformance to the KVDB interface contract,
//     including read-your-writes, delete semantics and durability across a restart
//   - benchmark: Performance tests for measuring throughput of common database operations
//
// The suite works on KVDB[string] databases. Every test opens its database in a
// fresh temporary directory through a DBFactory; restart tests open the same
// directory twice.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(dir string) (db.KVDB[string], error) {
//		return mydb.Open(filepath.Join(dir, "data.log"), filepath.Join(dir, "data.meta"), codec.String)
//	}
//
//	// Running the standard test suite
//	testing.RunKVDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	testing.RunKVDBBenchmarks(b, "MyDatabase", factory)
package testing
