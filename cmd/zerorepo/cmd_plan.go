package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zerorepo/zerorepo/internal/orchestrator"
)

var (
	planGoal          string
	planDomain        string
	planMaxIterations int
	planOut           string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run Stage A (proposal) and print the resulting capability graph",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planGoal, "goal", "", "project goal (required)")
	planCmd.Flags().StringVar(&planDomain, "domain", "", "domain filter for feature retrieval")
	planCmd.Flags().IntVar(&planMaxIterations, "max-iterations", 0, "exploit/explore/missing loop bound (default: config value)")
	planCmd.Flags().StringVar(&planOut, "out", "", "write the capability graph JSON here instead of stdout")
	planCmd.MarkFlagRequired("goal")
}

func runPlan(cmd *cobra.Command, args []string) error {
	orch, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	maxIterations := planMaxIterations
	if maxIterations <= 0 {
		maxIterations = cfg.Execution.ProposalMaxIter
	}

	result, err := orch.Plan(context.Background(), orchestrator.Request{
		ProjectGoal:   planGoal,
		Domain:        planDomain,
		MaxIterations: maxIterations,
	})
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("plan: %s", result.Error)
	}

	data, err := json.MarshalIndent(result.Graph, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal capability graph: %w", err)
	}

	if planOut == "" {
		fmt.Println(string(data))
	} else {
		if err := os.WriteFile(planOut, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", planOut, err)
		}
		color.New(color.FgGreen).Printf("capability graph written to %s\n", planOut)
	}

	color.New(color.FgCyan).Printf("accepted %d features across %d iteration(s), rejected %d\n",
		len(result.Selected), result.Iterations, len(result.Rejected))
	return nil
}
