package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"secscan/internal/benchmark"
	"secscan/internal/config"
	"secscan/internal/scan"
)

var (
	benchWarmup    int
	benchRuns      int
	benchTimeout   int
	benchTools     bool
	benchJSON      bool
	benchSave      bool
	benchCompare   bool
	benchThreshold float64
	benchFile      string
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "Time repeated scans of a file",
	Long: `Runs the scan of <file> repeatedly after a few warmup runs and reports
mean, median, min, max and standard deviation. With --tools the static-analysis
tool is also timed on its own. Results can be saved to a history file and
compared against the previous saved run.`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVar(&benchWarmup, "warmup", 3, "Number of warmup runs")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 10, "Number of timed runs")
	benchCmd.Flags().IntVar(&benchTimeout, "timeout", 30, "Timeout in seconds for each run")
	benchCmd.Flags().BoolVar(&benchTools, "tools", false, "Also benchmark the static-analysis tool directly")
	benchCmd.Flags().BoolVar(&benchJSON, "json", false, "Output results as JSON")
	benchCmd.Flags().BoolVar(&benchSave, "save", false, "Save results to history")
	benchCmd.Flags().BoolVar(&benchCompare, "compare", false, "Compare with the previous saved results")
	benchCmd.Flags().Float64Var(&benchThreshold, "threshold", 10.0, "Percentage threshold for regression warning")
	benchCmd.Flags().StringVar(&benchFile, "file", ".secscan/benchmarks.json", "File to store benchmark history")
}

func runBench(cmd *cobra.Command, args []string) error {
	target := args[0]
	if benchRuns < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", benchRuns)
	}
	settings := config.FromViper()

	full, err := newScanner(settings, scanOptions{})
	if err != nil {
		return err
	}
	// Fail on a bad target before timing anything.
	if _, err := full.Run(cmd.Context(), target); err != nil {
		return err
	}
	suggestOnly, err := newScanner(settings, scanOptions{NoDeps: true, NoStatic: true})
	if err != nil {
		return err
	}

	runner := benchmark.NewRunner(benchWarmup, benchRuns, time.Duration(benchTimeout)*time.Second)
	if !benchJSON {
		runner.Progress = func(name string, run int, d time.Duration, err error) {
			status := "ok"
			if err != nil {
				status = err.Error()
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s run %d/%d: %.3f ms %s\n", name, run, benchRuns, float64(d)/float64(time.Millisecond), status)
		}
	}

	ctx := cmd.Context()
	results := []benchmark.Result{
		runner.Measure(ctx, "scan", scanTask(full, target)),
		runner.Measure(ctx, "scan (suggestions only)", scanTask(suggestOnly, target)),
	}
	if benchTools {
		toolArgs := append(append([]string{}, settings.StaticArgs...), target)
		results = append(results, runner.Measure(ctx, settings.StaticCommand, benchmark.CommandTask(settings.StaticCommand, toolArgs...)))
	}

	revision, _ := buildRevision()
	run := benchmark.Run{
		Timestamp: time.Now(),
		Commit:    revision,
		Target:    target,
		Results:   results,
	}

	var store *benchmark.FileStore
	var previous *benchmark.Run
	if benchSave || benchCompare {
		store, err = benchmark.NewFileStore(benchFile)
		if err != nil {
			return err
		}
		previous, err = store.LoadLatest()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to load history: %v\n", err)
		}
	}

	out := cmd.OutOrStdout()
	if benchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if err := benchmark.WriteResult(out, res); err != nil {
				return err
			}
			fmt.Fprintln(out)
		}
		if err := benchmark.WriteRanking(out, benchmark.Rank(results)); err != nil {
			return err
		}
	}

	if benchCompare {
		printComparison(cmd, previous, run)
	}

	if benchSave {
		if err := store.Save(run); err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Results saved to %s\n", benchFile)
	}
	return nil
}

func scanTask(s *scan.Scanner, target string) benchmark.Task {
	return func(ctx context.Context) error {
		_, err := s.Run(ctx, target)
		return err
	}
}

func printComparison(cmd *cobra.Command, previous *benchmark.Run, current benchmark.Run) {
	w := cmd.ErrOrStderr()
	if previous == nil {
		fmt.Fprintln(w, "No previous results to compare against.")
		return
	}
	fmt.Fprintf(w, "\nCompared with run from %s:\n", previous.Timestamp.Format(time.RFC3339))
	for _, c := range benchmark.Compare(*previous, current) {
		marker := ""
		if c.Regressed(benchThreshold) {
			marker = "  REGRESSION"
		}
		fmt.Fprintf(w, "  %s%s\n", c, marker)
	}
}
