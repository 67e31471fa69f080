// Package db provides a standardized interface for persistent key-value database implementations.
// It defines a generic KVDB interface that allows for consistent interaction
// with various storage engines while abstracting implementation details.
//
// The package focuses on:
//   - A unified interface for key-value operations over int64 keys and typed values
//   - Feature discovery through capability flags
//   - A shared error taxonomy (ErrNotFound, IOError, ErrCorruptMetadata, ...)
//   - Comprehensive metadata reporting
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Put, Get, Has, Delete),
//     persistence operations (Flush, Save), metadata retrieval (GetInfo) and
//     lifecycle management (Close).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows clients to
//     discover supported operations at runtime.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for different database backends (currently "birch").
//
//   - Errors: NotFound and I/O failures are distinct, inspectable outcomes. ErrNotFound is
//     recoverable and never changes the database state. An *IOError is fatal for the
//     operation that produced it; a failed log write additionally poisons the database,
//     since every offset assigned after the failure would point to the wrong bytes.
//     ErrCorruptMetadata is only ever logged: a damaged index snapshot means a partial
//     index, not a failed start.
//
// Note on Values:
//   - Implementations never inspect values. A codec (see package codec) turns a value
//     into bytes and back and reports the logical size of a value, i.e. the exact number
//     of bytes it occupies in the log. For variable-length values such as strings and
//     user-defined records this differs from the in-memory size.
//
// Note on Space Reclamation:
//   - Overwritten and deleted values are orphaned, not reclaimed. No implementation in
//     this repository advertises FeatureCompaction.
//
// Related Packages:
//
// The engines/birch package (github.com/ValentinKolb/aKV/lib/db/engines/birch) provides the
// append-only log implementation of the KVDB interface: buffered writes, a pool of flush
// workers that keep the physical write order equal to the offset assignment order, and an
// index snapshot that survives restarts.
//
// The util package (github.com/ValentinKolb/aKV/lib/db/util) provides the building blocks:
//   - LockFreeMPSC: A lock-free multi-producer single-consumer queue used as the chunk hand-off queue
//   - MapHeap: A priority queue with key access, used to reorder chunks before they are written
//   - SizeHistogram: Utilities for analyzing value size distributions
//
// The testing package (github.com/ValentinKolb/aKV/lib/db/testing) provides
// standardized tests and benchmarks for database implementations that satisfy the db.KVDB interface.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
