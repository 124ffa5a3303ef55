package kv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/hKV/cmd/util"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for hKV servers",
		Long:    "Runs parallel benchmarks for every command against the configured shard. All test keys are written to the table __perf and removed afterwards.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfTable            = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

// perfResult is the outcome of a benchmark together with the latency samples of its last run
type perfResult struct {
	testing.BenchmarkResult
	latency gometrics.Histogram
}

// perfTest is a single benchmark
type perfTest struct {
	name    string
	prefill bool                          // write all keys before the benchmark
	op      func(key string, i int) error // a single operation
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. hset,hget)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the hset-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Performance testing tool for hKV servers")

	// Print configuration
	config := util.GetClientConfig()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, config.String())
	fmt.Fprintf(out, "Threads: %d\n\n", perfNumThreads)

	fmt.Fprintln(out, "starting tests...")

	value := store.StringValue("test")
	largeValue := store.BinaryValue(make([]byte, perfLargeValueSizeKB*1024))

	tests := []perfTest{
		{name: "hset", op: func(key string, _ int) error {
			_, _, err := rpcStore.Set(perfTable, key, value)
			return err
		}},
		{name: "hset-large", op: func(key string, _ int) error {
			_, _, err := rpcStore.Set(perfTable, key, largeValue)
			return err
		}},
		{name: "hget", prefill: true, op: func(key string, _ int) error {
			_, _, err := rpcStore.Get(perfTable, key)
			return err
		}},
		{name: "hexist", prefill: true, op: func(key string, _ int) error {
			_, err := rpcStore.Contains(perfTable, key)
			return err
		}},
		{name: "hdel", prefill: true, op: func(key string, _ int) error {
			_, _, err := rpcStore.Del(perfTable, key)
			return err
		}},
		{name: "hgetall", prefill: true, op: func(string, int) error {
			_, err := rpcStore.GetAll(perfTable)
			return err
		}},
		{name: "mixed", prefill: true, op: func(key string, i int) error {
			var err error
			switch i % 4 {
			case 0:
				_, _, err = rpcStore.Set(perfTable, key, value)
			case 1:
				_, _, err = rpcStore.Get(perfTable, key)
			case 2:
				_, _, err = rpcStore.Del(perfTable, key)
			case 3:
				_, err = rpcStore.Contains(perfTable, key)
			}
			return err
		}},
	}

	// Create results map
	results := make(map[string]perfResult)
	for _, test := range tests {
		result := runBenchmark(test)
		results[test.name] = result
		printResult(out, test.name, result)
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Fprintln(out, "Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runBenchmark runs a test in parallel and removes its keys afterwards
func runBenchmark(test perfTest) perfResult {
	if slices.Contains(perfSkip, test.name) {
		return perfResult{}
	}

	getKey, iter := getKeys(test.name)
	var latency gometrics.Histogram

	result := testing.Benchmark(func(b *testing.B) {
		latency = gometrics.NewHistogram(gometrics.NewUniformSample(4096))

		if test.prefill {
			iter(func(k string) {
				if _, _, err := rpcStore.Set(perfTable, k, store.StringValue("test")); err != nil {
					log.Printf("(%s) - error setting key: %v\n", test.name, err)
				}
			})
		}

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				if _, _, err := rpcStore.Del(perfTable, k); err != nil {
					log.Printf("(%s) - error deleting key: %v\n", test.name, err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := test.op(getKey(counter), counter); err != nil {
					log.Printf("(%s) - error: %v\n", test.name, err)
				}
				latency.Update(time.Since(start).Nanoseconds())
				counter++
			}
		})
	})

	return perfResult{BenchmarkResult: result, latency: latency}
}

// getKeys creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%d", prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(out io.Writer, test string, result perfResult) {
	if result.N == 0 {
		fmt.Fprintf(out, "%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Fprintf(out, "%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		percentile(result, 0.5), percentile(result, 0.99))
}

// percentile returns the latency percentile of a single request
func percentile(result perfResult, p float64) time.Duration {
	if result.latency == nil {
		return 0
	}
	return time.Duration(result.latency.Percentile(p))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P99", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// sorted for a stable file
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, test := range names {
		result := results[test]
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.N > 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			percentile(result, 0.5).String(),
			percentile(result, 0.99).String(),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", test, err)
		}
	}

	return nil
}
