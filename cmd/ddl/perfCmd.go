package ddl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dKS/cmd/util"
	"github.com/ValentinKolb/dKS/lib/core"
	"github.com/ValentinKolb/dKS/lib/table"
	"github.com/ValentinKolb/dKS/rpc/common"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dKS servers",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfSpace       = "__perf"
	perfNumThreads  = 10
	perfModelSpread = 100
	perfSkip        = make([]string, 0)
	perfSeq         atomic.Uint64
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. create-drop,ping)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "models"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different models to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfModelSpread = viper.GetInt("models")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for dKS servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Models: %d\n", perfModelSpread)
	fmt.Println()

	// All benchmarks run against a dedicated space so a force drop at the
	// end removes every object they created
	if err := rpcDDL.CreateSpace(perfSpace); err != nil && !errors.Is(err, core.ErrAlreadyExists) {
		return fmt.Errorf("failed to create benchmark space: %v", err)
	}
	defer func() {
		if err := rpcDDL.DropSpace(perfSpace, true); err != nil {
			log.Printf("(cleanup) - error dropping benchmark space: %v\n", err)
		}
	}()

	// prepare models for the read benchmarks
	getModel, iter := getModels("bench")
	iter(func(m string) {
		err := rpcDDL.CreateModel(perfSpace, m, table.KVStrStr, true)
		if err != nil {
			log.Printf("(setup) - error creating model: %v\n", err)
		}
	})

	fmt.Println("staring tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)
	timers := make(map[string]metrics.Timer)

	record := func(name string, op func(counter int) error) {
		result, timer := runBenchmark(name, op)
		results[name] = result
		timers[name] = timer
		printResult(name, result, timer)
	}

	record("create-drop", func(counter int) error {
		name := fmt.Sprintf("churn_%d", perfSeq.Add(1))
		if err := rpcDDL.CreateModel(perfSpace, name, table.KVStrStr, true); err != nil {
			return err
		}
		return rpcDDL.DropModel(perfSpace, name, false)
	})

	record("inspect-spaces", func(counter int) error {
		_, err := rpcDDL.InspectSpaces()
		return err
	})

	record("inspect-space", func(counter int) error {
		_, err := rpcDDL.InspectSpace(perfSpace)
		return err
	})

	record("inspect-model", func(counter int) error {
		_, err := rpcDDL.InspectModel(perfSpace, getModel(counter))
		return err
	})

	record("use", func(counter int) error {
		_, err := rpcDDL.Use(perfSpace, getModel(counter))
		return err
	})

	record("ping", func(counter int) error {
		return rpcDDL.Ping()
	})

	record("mixed", func(counter int) error {
		switch counter % 4 {
		case 0:
			name := fmt.Sprintf("mixed_%d", perfSeq.Add(1))
			if err := rpcDDL.CreateModel(perfSpace, name, table.KVStrListStr, true); err != nil {
				return err
			}
			return rpcDDL.DropModel(perfSpace, name, false)
		case 1:
			_, err := rpcDDL.InspectSpace(perfSpace)
			return err
		case 2:
			_, err := rpcDDL.Use(perfSpace, getModel(counter))
			return err
		default:
			return rpcDDL.Ping()
		}
	})

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, timers, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runBenchmark runs one benchmark with the configured parallelism. Every
// operation is additionally timed with a metrics timer so latency
// percentiles can be reported next to the plain ops/sec numbers.
func runBenchmark(name string, op func(counter int) error) (testing.BenchmarkResult, metrics.Timer) {
	timer := metrics.NewTimer()
	result := testing.Benchmark(func(b *testing.B) {
		if shouldSkip(name) {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := op(counter); err != nil {
					log.Printf("(%s) - error: %v\n", name, err)
				}
				timer.UpdateSince(start)
				counter++
			}
		})
	})
	return result, timer
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test model names and functions to work with them
func getModels(prefix string) (func(int) string, func(func(string))) {
	models := make([]string, perfModelSpread)
	for i := 0; i < perfModelSpread; i++ {
		models[i] = fmt.Sprintf("%s_%d", prefix, i)
	}

	// Function to get a model name by index (with wraparound)
	getModel := func(i int) string {
		return models[i%perfModelSpread]
	}

	// Function to iterate over all model names and apply a function to each
	iterateModels := func(fn func(string)) {
		for _, model := range models {
			fn(model)
		}
	}

	return getModel, iterateModels
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult, timer metrics.Timer) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p95=%s p99=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, timers map[string]metrics.Timer, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P95", "P99", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Serializer", "Transport",
		"Threads", "Models Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		ps := timers[test].Percentiles([]float64{0.5, 0.95, 0.99})

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			time.Duration(ps[0]).String(),
			time.Duration(ps[1]).String(),
			time.Duration(ps[2]).String(),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfModelSpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
