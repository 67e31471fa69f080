package kv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/aKV/lib/db/codec"
	"github.com/ValentinKolb/aKV/lib/db/engines/birch"
	"github.com/ValentinKolb/aKV/lib/store/lstore"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerfTestsVerifyValues(t *testing.T) {
	dir := t.TempDir()
	s, err := lstore.OpenWithOptions(filepath.Join(dir, "akv.log"), filepath.Join(dir, "akv.meta"), codec.String,
		&birch.Options{BufferCapacity: 256, Workers: 4, MaxPendingChunks: 2})
	require.NoError(t, err)
	defer s.Close()

	perfNumThreads, perfOpsPerThr, perfKeySpread, perfValueSize = 4, 200, 50, 32
	perfSkip = []string{"has"}

	results := runPerfTests(s, gometrics.NewRegistry())
	require.Len(t, results, len(perfTests))

	for _, res := range results {
		if res.Test == "has" {
			assert.True(t, res.Skipped)
			continue
		}
		assert.False(t, res.Skipped, res.Test)
		assert.Equal(t, int64(4*200), res.Ops, res.Test)
		assert.Zero(t, res.Errors, res.Test)
	}

	// all test keys are removed afterwards
	for i := 0; i < perfKeySpread; i++ {
		ok, err := s.Has(perfKeyBase + int64(i))
		require.NoError(t, err)
		assert.False(t, ok)
	}

	csvPath := filepath.Join(dir, "perf.csv")
	require.NoError(t, writeResultsToCSV(csvPath, results))
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, len(results)+1)
}

func TestValueFor(t *testing.T) {
	perfValueSize = 16
	assert.Len(t, valueFor(perfKeyBase), 16)
	assert.NotEqual(t, valueFor(perfKeyBase), valueFor(perfKeyBase+1))

	perfValueSize = 1
	assert.Equal(t, "42:", valueFor(42))
}

func TestParseKey(t *testing.T) {
	k, err := parseKey("-17")
	require.NoError(t, err)
	assert.Equal(t, int64(-17), k)

	_, err = parseKey("abc")
	assert.Error(t, err)
}
