// Package birch implements an append-only key-value database (KVDB) with int64 keys and
// typed values. Values are encoded by a codec.Codec and stored back to back in a log
// file, an in-memory index maps every key to the byte range of its latest value and a
// metadata file persists the index between runs.
//
// The package focuses on:
//   - Many concurrent writers: a Put only holds the buffer mutex for an append to memory
//   - Asynchronous writes: full buffers are written by a pool of background workers
//   - Read-your-writes: a Get of a value that is still buffered flushes first
//   - Fast restarts: the index is loaded from a snapshot instead of scanning the log
//
// Key Components:
//
//   - DB: The central structure implementing db.KVDB. It owns both files, the index,
//     the write buffer and the background workers.
//
//   - Write Buffer: Encoded values are appended to an in-memory buffer. The offset of a
//     value is the cursor at the moment of its append. Once the buffer reaches
//     BufferCapacity it is sealed into a chunk carrying a sequence number and the offset
//     of its first byte. Offset assignment, index update, append and sealing happen
//     under one mutex, so offsets, buffer contents and sequence numbers agree.
//
//   - Hand-off Queue: Sealed chunks are pushed onto a util.LockFreeMPSC queue while the
//     buffer mutex is still held. A weighted semaphore bounds the number of chunks
//     waiting for a worker (MaxPendingChunks); Put blocks when the bound is reached.
//
//   - Flush Workers: Workers goroutines (default: one per CPU) receive chunks from the
//     queue and submit them to the commit gate. They wait on the queue channel and do
//     not poll. On Close the queue is closed, the workers drain it and return.
//
//   - Commit Gate: The only writer of the log. Workers may submit chunks in any order,
//     the gate parks early chunks in a reorder heap (util.MapHeap) and writes chunks
//     strictly by sequence number, each at exactly the current end of the log. This is
//     what keeps every offset in the index valid with more than one worker.
//     A failed write is sticky: later chunks are dropped and every following
//     Put, Get and Flush returns the error.
//
//   - Index: An xsync.MapOf[int64, Record]. A Record holds offset and logical size.
//     Delete only removes the record, the bytes stay in the log (there is no compaction).
//
// Snapshot Format:
//
//	[count uint64] ([key int64][offset uint64][size uint64]) * count
//
// All integers are fixed-width in native byte order. The snapshot is rewritten on
// Save, on Close and optionally every SnapshotInterval. On Open a missing count means
// an empty index, a partial record stops loading (the remaining keys are absent), and
// records that end behind the log are dropped. The write cursor always starts at the
// end of the log file.
//
// Thread Safety:
//
//	All methods of DB are safe for concurrent use.
//
// Usage Example:
//
//	store, err := birch.Open("data.log", "data.meta", codec.String, nil)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	_ = store.Put(1, "hello")
//	v, err := store.Get(1) // "hello", flushed on demand
package birch
