package kv

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/aKV/cmd/util"
	"github.com/ValentinKolb/aKV/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance and consistency test for the local store",
		Long:    util.WrapString("Runs concurrent put, get, put-get, has, delete and mixed workloads against the configured store. Every value read is compared with the value written for its key. All test keys are deleted afterwards."),
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyBase     int64 = 1 << 48
	perfNumThreads        = 10
	perfOpsPerThr         = 10000
	perfKeySpread         = 10000
	perfValueSize         = 100
	perfSkip              = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Tests to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent clients"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Operations per client and test"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("How many different keys to use for the tests"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("Size of the values (in bytes)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save the results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOpsPerThr = max(viper.GetInt("ops"), 1)
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfValueSize = max(viper.GetInt("value-size"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for aKV")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetStoreConfig().String())
	fmt.Printf("Threads: %d, Ops per thread: %d, Keys: %d, Value size: %d B\n",
		perfNumThreads, perfOpsPerThr, perfKeySpread, perfValueSize)
	fmt.Println()

	fmt.Println("starting tests...")
	results := runPerfTests(localStore, gometrics.NewRegistry())

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	var failed int64
	for _, r := range results {
		failed += r.Errors
	}
	if failed > 0 {
		return fmt.Errorf("%d operations failed", failed)
	}
	return nil
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// perfTest is a single workload. op is called perfOpsPerThr times by every client,
// i is the index of the call.
type perfTest struct {
	name    string
	prepare bool // fill all keys before the test
	op      func(s store.IStore[string], r *rand.Rand, i int) error
}

// perfResult holds the measured latencies of a test
type perfResult struct {
	Test      string
	Skipped   bool
	Ops       int64
	Errors    int64
	Duration  time.Duration
	Mean      time.Duration
	P50       time.Duration
	P99       time.Duration
	Max       time.Duration
	OpsPerSec float64
}

var perfTests = []perfTest{
	{
		name: "put",
		op: func(s store.IStore[string], r *rand.Rand, _ int) error {
			key := randomKey(r)
			return s.Put(key, valueFor(key))
		},
	},
	{
		name:    "get",
		prepare: true,
		op: func(s store.IStore[string], r *rand.Rand, _ int) error {
			return getAndVerify(s, randomKey(r), false)
		},
	},
	{
		name: "put-get",
		op: func(s store.IStore[string], r *rand.Rand, _ int) error {
			key := randomKey(r)
			if err := s.Put(key, valueFor(key)); err != nil {
				return err
			}
			return getAndVerify(s, key, false)
		},
	},
	{
		name:    "has",
		prepare: true,
		op: func(s store.IStore[string], r *rand.Rand, _ int) error {
			key := randomKey(r)
			ok, err := s.Has(key)
			if err == nil && !ok {
				err = fmt.Errorf("key %d is missing", key)
			}
			return err
		},
	},
	{
		name:    "delete",
		prepare: true,
		op: func(s store.IStore[string], r *rand.Rand, _ int) error {
			if err := s.Delete(randomKey(r)); err != nil && !store.IsNotFound(err) {
				return err
			}
			return nil
		},
	},
	{
		name:    "mixed",
		prepare: true,
		op: func(s store.IStore[string], r *rand.Rand, i int) error {
			key := randomKey(r)
			var err error
			switch i % 4 {
			case 0:
				err = s.Put(key, valueFor(key))
			case 1:
				err = getAndVerify(s, key, true)
			case 2:
				err = s.Delete(key)
			case 3:
				_, err = s.Has(key)
			}
			if store.IsNotFound(err) {
				return nil
			}
			return err
		},
	},
}

// runPerfTests runs every test that is not skipped and prints its result
func runPerfTests(s store.IStore[string], registry gometrics.Registry) []perfResult {
	results := make([]perfResult, 0, len(perfTests))
	for _, t := range perfTests {
		var res perfResult
		if shouldSkip(t.name) {
			res = perfResult{Test: t.name, Skipped: true}
		} else {
			res = runPerfTest(s, registry, t)
		}
		printResult(res)
		results = append(results, res)
	}
	return results
}

// runPerfTest runs t with perfNumThreads concurrent clients
func runPerfTest(s store.IStore[string], registry gometrics.Registry, t perfTest) perfResult {
	timer := gometrics.NewRegisteredTimer("perf."+t.name+".latency", registry)
	errCount := gometrics.NewRegisteredCounter("perf."+t.name+".errors", registry)
	defer timer.Stop()

	if t.prepare {
		forEachKey(func(key int64) {
			if err := s.Put(key, valueFor(key)); err != nil {
				util.Logger.Errorf("(%s) - error preparing key %d: %v", t.name, key, err)
			}
		})
		if err := s.Flush(); err != nil {
			util.Logger.Errorf("(%s) - error flushing: %v", t.name, err)
		}
	}

	var g errgroup.Group
	start := time.Now()
	for c := 0; c < perfNumThreads; c++ {
		r := rand.New(rand.NewPCG(uint64(start.UnixNano()), uint64(c)))
		g.Go(func() error {
			for i := 0; i < perfOpsPerThr; i++ {
				opStart := time.Now()
				err := t.op(s, r, i)
				timer.UpdateSince(opStart)
				if err != nil {
					errCount.Inc(1)
					util.Logger.Errorf("(%s) - %v", t.name, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	// cleanup
	forEachKey(func(key int64) {
		if err := s.Delete(key); err != nil && !store.IsNotFound(err) {
			util.Logger.Errorf("(%s) - error deleting key %d: %v", t.name, key, err)
		}
	})

	snap := timer.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.99})
	return perfResult{
		Test:      t.name,
		Ops:       snap.Count(),
		Errors:    errCount.Count(),
		Duration:  elapsed,
		Mean:      time.Duration(snap.Mean()),
		P50:       time.Duration(ps[0]),
		P99:       time.Duration(ps[1]),
		Max:       time.Duration(snap.Max()),
		OpsPerSec: float64(snap.Count()) / max(elapsed.Seconds(), 1e-9),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// randomKey returns a random test key
func randomKey(r *rand.Rand) int64 {
	return perfKeyBase + int64(r.IntN(perfKeySpread))
}

// forEachKey calls fn for every test key
func forEachKey(fn func(int64)) {
	for i := 0; i < perfKeySpread; i++ {
		fn(perfKeyBase + int64(i))
	}
}

// valueFor returns the value written for key. It only depends on the key, so
// a read can be verified no matter which client wrote last.
func valueFor(key int64) string {
	prefix := strconv.FormatInt(key, 10) + ":"
	if len(prefix) >= perfValueSize {
		return prefix
	}
	return prefix + strings.Repeat("v", perfValueSize-len(prefix))
}

// getAndVerify reads key and compares the value with valueFor(key)
func getAndVerify(s store.IStore[string], key int64, allowMissing bool) error {
	v, err := s.Get(key)
	if err != nil {
		if allowMissing && store.IsNotFound(err) {
			return nil
		}
		return err
	}
	if want := valueFor(key); v != want {
		return fmt.Errorf("key %d: read %d bytes that differ from the %d bytes written", key, len(v), len(want))
	}
	return nil
}

// printResult prints the result of a test in a formatted way
func printResult(res perfResult) {
	if res.Skipped {
		fmt.Printf("%-10sskipped\n", res.Test)
		return
	}
	fmt.Printf("%-10s%9.0f ops/sec  mean %-10s p50 %-10s p99 %-10s max %-10s errors %d\n",
		res.Test, res.OpsPerSec, res.Mean, res.P50, res.P99, res.Max, res.Errors)
}

// writeResultsToCSV writes the test results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"Test", "Skipped", "Ops", "Errors", "DurationNs", "OpsPerSec",
		"MeanNs", "P50Ns", "P99Ns", "MaxNs",
		"Threads", "OpsPerThread", "Keys", "ValueSize",
		"BufferCapacity", "Workers", "MaxPendingChunks",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	conf := util.GetStoreConfig()
	for _, res := range results {
		row := []string{
			res.Test,
			strconv.FormatBool(res.Skipped),
			strconv.FormatInt(res.Ops, 10),
			strconv.FormatInt(res.Errors, 10),
			strconv.FormatInt(res.Duration.Nanoseconds(), 10),
			fmt.Sprintf("%.0f", res.OpsPerSec),
			strconv.FormatInt(res.Mean.Nanoseconds(), 10),
			strconv.FormatInt(res.P50.Nanoseconds(), 10),
			strconv.FormatInt(res.P99.Nanoseconds(), 10),
			strconv.FormatInt(res.Max.Nanoseconds(), 10),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfOpsPerThr),
			strconv.Itoa(perfKeySpread),
			strconv.Itoa(perfValueSize),
			strconv.Itoa(conf.BufferCapacity),
			strconv.Itoa(conf.Workers),
			strconv.Itoa(conf.MaxPendingChunks),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", res.Test, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
