// Package util provides building blocks shared by the storage engines
// that satisfy the db.KVDB interface.
//
// The package contains:
//   - lockfreempsc: an unbounded Multi-Producer queue with a channel based consumer side,
//     used as the FIFO hand-off between writers and flush workers
//   - mapheap: a min-heap with key-based access, used as the reorder buffer that
//     releases sealed chunks strictly in sequence order
//   - statistics: a SizeHistogram for tracking the distribution of value sizes
//
// None of the components know about a concrete engine.
package util
