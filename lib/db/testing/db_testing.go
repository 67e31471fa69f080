package testing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/aKV/lib/db"
)

// DBFactory opens a KVDB implementation that keeps its files in dir.
// Opening the same dir again must see everything persisted by the previous instance.
type DBFactory func(dir string) (db.KVDB[string], error)

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, open(t, factory, t.TempDir()))
		})

		t.Run("ReadYourWrites", func(t *testing.T) {
			testReadYourWrites(t, open(t, factory, t.TempDir()))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, open(t, factory, t.TempDir()))
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, open(t, factory, t.TempDir()))
		})

		t.Run("HelloWorld", func(t *testing.T) {
			testHelloWorld(t, open(t, factory, t.TempDir()))
		})

		t.Run("MissingKey", func(t *testing.T) {
			testMissingKey(t, open(t, factory, t.TempDir()))
		})

		t.Run("Restart", func(t *testing.T) {
			testRestart(t, factory)
		})

		t.Run("SaveRestart", func(t *testing.T) {
			testSaveRestart(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, open(t, factory, t.TempDir()))
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, open(t, factory, t.TempDir()))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, open(t, factory, t.TempDir()))
		})

		t.Run("Closed", func(t *testing.T) {
			testClosed(t, open(t, factory, t.TempDir()))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// open creates a database in dir and fails the test on error
func open(t testing.TB, factory DBFactory, dir string) db.KVDB[string] {
	t.Helper()
	database, err := factory(dir)
	if err != nil {
		t.Fatalf("Failed to open database in %s: %v", dir, err)
	}
	return database
}

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB[string], feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// expectValue fails the test if key does not hold want
func expectValue(t *testing.T, database db.KVDB[string], key int64, want string) {
	t.Helper()
	got, err := database.Get(key)
	if err != nil {
		t.Errorf("Get(%d): unexpected error %v", key, err)
		return
	}
	if got != want {
		t.Errorf("Get(%d): expected %q, got %q", key, want, got)
	}
}

// expectNotFound fails the test if Get(key) does not fail with db.ErrNotFound
func expectNotFound(t *testing.T, database db.KVDB[string], key int64) {
	t.Helper()
	if _, err := database.Get(key); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Get(%d): expected ErrNotFound, got %v", key, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	testKey := int64(7)

	if err := database.Put(testKey, "test-value1"); err != nil {
		t.Fatalf("Put: unexpected error %v", err)
	}
	expectValue(t, database, testKey, "test-value1")

	if err := database.Put(testKey, "test-value2"); err != nil {
		t.Fatalf("Put: unexpected error %v", err)
	}
	expectValue(t, database, testKey, "test-value2")

	expectNotFound(t, database, 8)

	// an overwrite with a shorter value must not leak bytes of the old one
	if err := database.Put(testKey, "v3"); err != nil {
		t.Fatalf("Put: unexpected error %v", err)
	}
	expectValue(t, database, testKey, "v3")
}

func testReadYourWrites(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	for i := int64(0); i < 500; i++ {
		value := fmt.Sprintf("ryw-value-%d", i)
		if err := database.Put(i, value); err != nil {
			t.Fatalf("Put(%d): unexpected error %v", i, err)
		}
		expectValue(t, database, i, value)
	}

	for i := int64(0); i < 500; i++ {
		expectValue(t, database, i, fmt.Sprintf("ryw-value-%d", i))
	}
}

func testDelete(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureDelete)

	testKey := int64(100)

	if err := database.Put(testKey, "delete-test-value"); err != nil {
		t.Fatalf("Put: unexpected error %v", err)
	}
	expectValue(t, database, testKey, "delete-test-value")

	if err := database.Delete(testKey); err != nil {
		t.Errorf("Delete: unexpected error %v", err)
	}
	expectNotFound(t, database, testKey)

	if err := database.Delete(testKey); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Second Delete: expected ErrNotFound, got %v", err)
	}

	if err := database.Put(testKey, "second-life"); err != nil {
		t.Fatalf("Put after Delete: unexpected error %v", err)
	}
	expectValue(t, database, testKey, "second-life")
}

func testHas(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureDelete|db.FeatureHas)

	testKey := int64(-5)

	if database.Has(testKey) {
		t.Errorf("Expected Has to return false for nonexistent key")
	}

	_ = database.Put(testKey, "has-value")
	if !database.Has(testKey) {
		t.Errorf("Expected Has to return true after Put")
	}

	_ = database.Delete(testKey)
	if database.Has(testKey) {
		t.Errorf("Expected Has to return false after Delete")
	}
}

// testHelloWorld is the reference scenario: two buffered puts, a get that has to
// flush, a delete that only affects its own key
func testHelloWorld(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureDelete)

	if err := database.Put(1, "hello"); err != nil {
		t.Fatalf("Put(1): %v", err)
	}
	if err := database.Put(2, "world"); err != nil {
		t.Fatalf("Put(2): %v", err)
	}

	expectValue(t, database, 1, "hello")

	if err := database.Delete(1); err != nil {
		t.Errorf("Delete(1): %v", err)
	}
	expectNotFound(t, database, 1)
	expectValue(t, database, 2, "world")
}

func testMissingKey(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeatureGet|db.FeatureDelete)

	expectNotFound(t, database, 42)
	if err := database.Delete(42); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Delete(42): expected ErrNotFound, got %v", err)
	}
}

func testRestart(t *testing.T, factory DBFactory) {
	dir := t.TempDir()
	database := open(t, factory, dir)

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureFlush)

	numEntries := 1000
	for i := 0; i < numEntries; i++ {
		_ = database.Put(int64(i), fmt.Sprintf("restart-value-%d", i))
	}
	_ = database.Delete(3)
	_ = database.Put(4, "overwritten")

	if err := database.Flush(); err != nil {
		t.Fatalf("Flush: unexpected error %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Close: unexpected error %v", err)
	}

	database = open(t, factory, dir)
	defer database.Close()

	for i := 0; i < numEntries; i++ {
		switch i {
		case 3:
			expectNotFound(t, database, 3)
		case 4:
			expectValue(t, database, 4, "overwritten")
		default:
			expectValue(t, database, int64(i), fmt.Sprintf("restart-value-%d", i))
		}
	}

	// writes after a restart go behind the existing data
	if err := database.Put(int64(numEntries), "after-restart"); err != nil {
		t.Fatalf("Put after restart: %v", err)
	}
	expectValue(t, database, int64(numEntries), "after-restart")
	expectValue(t, database, 0, "restart-value-0")
}

func testSaveRestart(t *testing.T, factory DBFactory) {
	dir := t.TempDir()
	database := open(t, factory, dir)

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureSnapshot)

	for i := int64(0); i < 100; i++ {
		_ = database.Put(i, strings.Repeat("s", int(i)))
	}
	if err := database.Save(); err != nil {
		t.Fatalf("Save: unexpected error %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Close: unexpected error %v", err)
	}

	database = open(t, factory, dir)
	defer database.Close()

	for i := int64(0); i < 100; i++ {
		expectValue(t, database, i, strings.Repeat("s", int(i)))
	}
}

func testEdgeCases(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	// empty value
	if err := database.Put(1, ""); err != nil {
		t.Errorf("Put empty value: %v", err)
	}
	expectValue(t, database, 1, "")

	// extreme keys
	for _, key := range []int64{0, -1, math.MinInt64, math.MaxInt64} {
		value := fmt.Sprintf("extreme-%d", key)
		if err := database.Put(key, value); err != nil {
			t.Errorf("Put(%d): %v", key, err)
		}
		expectValue(t, database, key, value)
	}

	// binary data and utf-8
	binary := string([]byte{0, 1, 2, 0, 255, 254})
	_ = database.Put(2, binary)
	expectValue(t, database, 2, binary)
	_ = database.Put(3, "ünïcödé ✓")
	expectValue(t, database, 3, "ünïcödé ✓")

	if !t.Failed() {
		// a value much larger than any write buffer
		largeValue := make([]byte, 4*1024*1024)
		for i := range largeValue {
			largeValue[i] = byte(i % 256)
		}
		if err := database.Put(4, string(largeValue)); err != nil {
			t.Fatalf("Put large value: %v", err)
		}
		result, err := database.Get(4)
		if err != nil {
			t.Fatalf("Get large value: %v", err)
		}
		if len(result) != len(largeValue) || result != string(largeValue) {
			t.Errorf("Large value mismatch: size %d, expected %d", len(result), len(largeValue))
		}

		// the neighbours of the large value are untouched
		expectValue(t, database, 3, "ünïcödé ✓")
	}
}

func testManyKeys(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureDelete)

	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		_ = database.Put(int64(i), fmt.Sprintf("value-%d", i))
	}

	for i := 0; i < numKeys; i++ {
		expectValue(t, database, int64(i), fmt.Sprintf("value-%d", i))
	}

	for i := 0; i < numKeys; i += 2 {
		if err := database.Delete(int64(i)); err != nil {
			t.Errorf("Delete(%d): %v", i, err)
		}
	}

	for i := 0; i < numKeys; i++ {
		if i%2 == 0 {
			expectNotFound(t, database, int64(i))
		} else {
			expectValue(t, database, int64(i), fmt.Sprintf("value-%d", i))
		}
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB[string]) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureDelete)

	numWorkers := 8
	opsPerWorker := 2000

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	var errorCount int32

	// every worker owns the keys [w*opsPerWorker, (w+1)*opsPerWorker) and checks its own
	// writes, so concurrent workers only interfere through the shared write pipeline
	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			base := int64(workerId * opsPerWorker)
			for i := 0; i < opsPerWorker; i++ {
				key := base + int64(i%100)
				value := fmt.Sprintf("w%d-op%d-%s", workerId, i, strings.Repeat("x", i%64))

				switch i % 10 {
				case 0, 1, 2, 3, 4, 5, 6:
					if err := database.Put(key, value); err != nil {
						atomic.AddInt32(&errorCount, 1)
						continue
					}
					got, err := database.Get(key)
					if err != nil || got != value {
						atomic.AddInt32(&errorCount, 1)
					}
				case 7, 8:
					if _, err := database.Get(key); err != nil && !errors.Is(err, db.ErrNotFound) {
						atomic.AddInt32(&errorCount, 1)
					}
				case 9:
					if err := database.Delete(key); err != nil && !errors.Is(err, db.ErrNotFound) {
						atomic.AddInt32(&errorCount, 1)
					}
				}
			}
		}(w)
	}

	wg.Wait()

	if atomic.LoadInt32(&errorCount) > 0 {
		t.Fatalf("Test had %d errors during parallel operations", errorCount)
	}

	if database.SupportsFeature(db.FeatureFlush) {
		if err := database.Flush(); err != nil {
			t.Errorf("Flush after parallel operations: %v", err)
		}
	}
}

func testClosed(t *testing.T, database db.KVDB[string]) {
	_ = database.Put(1, "before close")

	if err := database.Close(); err != nil {
		t.Fatalf("Close: unexpected error %v", err)
	}

	if err := database.Put(2, "after close"); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Put after Close: expected ErrClosed, got %v", err)
	}
	if _, err := database.Get(1); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Get after Close: expected ErrClosed, got %v", err)
	}
	if err := database.Delete(1); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Delete after Close: expected ErrClosed, got %v", err)
	}
	if err := database.Flush(); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Flush after Close: expected ErrClosed, got %v", err)
	}
	if database.Has(1) {
		t.Errorf("Has after Close: expected false")
	}
	if err := database.Close(); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Second Close: expected ErrClosed, got %v", err)
	}
}
