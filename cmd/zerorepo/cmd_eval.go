package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var evalBenchmarkDir string

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run a generated repository's test suite and report pass/fail counts",
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalBenchmarkDir, "benchmark", "", "path to a previously generated repository (required)")
	evalCmd.MarkFlagRequired("benchmark")
}

func runEval(cmd *cobra.Command, args []string) error {
	result, err := buildSandboxer(cfg).RunFullSuite(context.Background(), evalBenchmarkDir)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}

	fmt.Println(result.Output)
	rate := 0.0
	if result.Counts.Total > 0 {
		rate = float64(result.Counts.Passed) / float64(result.Counts.Total)
	}
	if result.OK {
		color.New(color.FgGreen).Printf("eval: %d/%d passed (success_rate=%.2f)\n", result.Counts.Passed, result.Counts.Total, rate)
		return nil
	}
	color.New(color.FgRed).Printf("eval: %d/%d passed (success_rate=%.2f)\n", result.Counts.Passed, result.Counts.Total, rate)
	return fmt.Errorf("eval: suite failed (exit code %d)", result.ExitCode)
}
