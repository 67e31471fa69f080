package testing

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/aKV/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Put", func(b *testing.B) {
		benchmarkPut(b, open(b, factory, b.TempDir()))
	})

	b.Run("PutExisting", func(b *testing.B) {
		benchmarkPutExisting(b, open(b, factory, b.TempDir()))
	})

	b.Run("PutLargeValue", func(b *testing.B) {
		benchmarkPutLargeValue(b, open(b, factory, b.TempDir()))
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, open(b, factory, b.TempDir()))
	})

	b.Run("PutGet", func(b *testing.B) {
		benchmarkPutGet(b, open(b, factory, b.TempDir()))
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, open(b, factory, b.TempDir()))
	})

	b.Run("Has", func(b *testing.B) {
		benchmarkHas(b, open(b, factory, b.TempDir()))
	})

	b.Run("Has(not)", func(b *testing.B) {
		benchmarkHasNot(b, open(b, factory, b.TempDir()))
	})

	b.Run("Save", func(b *testing.B) {
		benchmarkSave(b, open(b, factory, b.TempDir()))
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, open(b, factory, b.TempDir()))
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// fill writes numKeys keys with short values and flushes
func fill(b *testing.B, database db.KVDB[string], numKeys int) {
	for i := 0; i < numKeys; i++ {
		_ = database.Put(int64(i), fmt.Sprintf("test-value-%d", i))
	}
	if database.SupportsFeature(db.FeatureFlush) {
		_ = database.Flush()
	}
}

// Benchmark for Put operation with new keys
func benchmarkPut(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := counter.Add(1)
			_ = database.Put(key, "test-value")
		}
	})
}

// Benchmark for Put operation with existing keys
func benchmarkPutExisting(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	numKeys := 10000
	fill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_ = database.Put(int64(counter%numKeys), "test-value-updated")
			counter++
		}
	})
}

// Benchmark for Put operation with large values
func benchmarkPutLargeValue(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	largeValue := strings.Repeat("L", 1024*1024) // 1MB
	var counter atomic.Int64

	b.SetBytes(int64(len(largeValue)))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = database.Put(counter.Add(1), largeValue)
		}
	})
}

// Parallel benchmarking for Get operation on flushed values
func benchmarkGet(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureGet)

	numKeys := 10000
	fill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = database.Get(int64(counter % numKeys))
			counter++
		}
	})
}

// Benchmark for a Get directly after a Put (forces a flush on every read)
func benchmarkPutGet(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureGet)

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := counter.Add(1)
			_ = database.Put(key, "read-your-writes")
			_, _ = database.Get(key)
		}
	})
}

// Parallel benchmarking for Delete operation
func benchmarkDelete(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureDelete)

	fill(b, database, b.N)

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = database.Delete(counter.Add(1) - 1)
		}
	})
}

// Parallel benchmarking for Has operation on missing keys
func benchmarkHasNot(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureHas)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Has(int64(counter))
			counter++
		}
	})
}

// Parallel benchmarking for Has operation on existing keys
func benchmarkHas(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureHas)

	numKeys := 10000
	fill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Has(int64(counter % numKeys))
			counter++
		}
	})
}

// Benchmark for index snapshots.
// Parallelization is not meaningful here as concurrent saves are serialized.
func benchmarkSave(b *testing.B, database db.KVDB[string]) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureSnapshot)

	fill(b, database, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = database.Save()
	}
}

// Benchmark for mixed usage patterns
func benchmarkMixedUsage(b *testing.B, database db.KVDB[string]) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureGet|db.FeatureDelete|db.FeatureHas)

	// Number of pre-populated keys
	numKeys := 100000
	if b.N < numKeys {
		numKeys = b.N
	}
	fill(b, database, numKeys)

	// Counter for atomic access
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		// Local counter for each goroutine
		localCounter := 0

		for pb.Next() {
			// Get a somewhat random index
			key := (atomic.AddInt64(&counter, 1) - 1) % int64(numKeys)

			// For every 10th operation, use a completely new key
			if localCounter%10 == 0 {
				key = int64(numKeys) + atomic.AddInt64(&counter, 1)
			}

			switch localCounter % 4 {
			case 0:
				_, _ = database.Get(key)
			case 1:
				_ = database.Put(key, fmt.Sprintf("mixed-value-%d", localCounter))
			case 2:
				_ = database.Delete(key)
			case 3:
				database.Has(key)
			}

			localCounter++
		}
	})
}
