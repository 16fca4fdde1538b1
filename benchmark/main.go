// Package main provides a performance benchmarking tool for the sosig CLI.
// It measures analyze times per repository with the metrics store cold, warm (cached)
// and forced, then times one batch run over every repository.
// Results are written as CSV for performance analysis and documentation.
//
// Prerequisites:
// - sosig binary installed and available in PATH
// - Test repositories cloned to the specified base directory
// - Git repositories: csv-parser, fd, git, kubernetes
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the timings for one repository (or the whole batch).
type BenchmarkResult struct {
	Repository string
	ColdTime   string
	WarmTime   string
	ForcedTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase   string
	Timeout    time.Duration
	Workers    int
	WarmRuns   int
	ForcedRuns int
	TestRepos  []string
	DBPath     string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	dbDir, err := os.MkdirTemp("", "sosig-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(dbDir) }()

	config := BenchmarkConfig{
		RepoBase:   os.Args[1],
		Timeout:    5 * time.Minute,
		Workers:    4,
		WarmRuns:   4,
		ForcedRuns: 3,
		TestRepos:  []string{"csv-parser", "fd", "git", "kubernetes"},
		DBPath:     filepath.Join(dbDir, "metrics.db"),
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the sosig binary and test repositories exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("sosig"); err != nil {
		return fmt.Errorf("sosig binary not found in PATH")
	}

	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}

	return nil
}

// runBenchmarks times every repository, then one batch over all of them
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d workers, warm: %d runs, forced: %d runs\n",
		len(config.TestRepos), config.Timeout, config.Workers, config.WarmRuns, config.ForcedRuns)

	clearStore(config)

	paths := make([]string, 0, len(config.TestRepos))
	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		paths = append(paths, repoPath)
		fmt.Printf("Benchmarking %s\n", repo)
		results = append(results, runBenchmarkSuite(config, repo, []string{repoPath}))
	}

	clearStore(config)
	fmt.Printf("Benchmarking batch of %d repositories\n", len(paths))
	results = append(results, runBenchmarkSuite(config, "batch", paths))

	return results
}

// runBenchmarkSuite measures the cold, warm and forced phases for the given paths
func runBenchmarkSuite(config BenchmarkConfig, name string, paths []string) BenchmarkResult {
	cold, ok := runAnalyze(config, paths, false)
	coldStr := "TIMEOUT"
	if ok {
		coldStr = fmt.Sprintf("%.3fs", cold)
	}

	warmStr := average(config, paths, false, config.WarmRuns)
	forcedStr := average(config, paths, true, config.ForcedRuns)

	fmt.Printf("  Cold: %s, Warm average: %s, Forced average: %s\n", coldStr, warmStr, forcedStr)

	return BenchmarkResult{
		Repository: name,
		ColdTime:   coldStr,
		WarmTime:   warmStr,
		ForcedTime: forcedStr,
	}
}

func average(config BenchmarkConfig, paths []string, force bool, runs int) string {
	var sum float64
	var count int
	for range runs {
		if secs, ok := runAnalyze(config, paths, force); ok {
			sum += secs
			count++
		}
	}
	if count == 0 {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", sum/float64(count))
}

// runAnalyze runs sosig analyze once and reports the elapsed seconds on success
func runAnalyze(config BenchmarkConfig, paths []string, force bool) (float64, bool) {
	args := []string{"analyze", "--db-connect", config.DBPath, "--workers", strconv.Itoa(config.Workers), "--allow-missing-remote"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, paths...)

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	start := time.Now()
	output, err := exec.CommandContext(ctx, "sosig", args...).CombinedOutput()
	if err != nil || !isSuccess(output, len(paths)) {
		return 0, false
	}
	return time.Since(start).Seconds(), true
}

// clearStore removes every record so the next run starts cold
func clearStore(config BenchmarkConfig) {
	fmt.Printf("Clearing metrics store...\n")
	output, err := exec.Command("sosig", "db", "clear", "--db-connect", config.DBPath).CombinedOutput()
	if err != nil {
		fmt.Printf("Warning: failed to clear metrics store: %v\nOutput: %s\n", err, string(output))
	}
}

// isSuccess checks that every requested path was analyzed
func isSuccess(output []byte, total int) bool {
	want := fmt.Sprintf("Analyzed %d of %d repositories", total, total)
	return strings.Contains(string(output), want)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("sosig_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"repo", "cold_time", "warm_avg", "forced_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.ColdTime, result.WarmTime, result.ForcedTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-12s: Cold: %s, Warm: %s, Forced: %s\n", result.Repository, result.ColdTime, result.WarmTime, result.ForcedTime)
	}
}
