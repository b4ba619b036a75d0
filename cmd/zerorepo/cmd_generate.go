package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/zerorepo/zerorepo/internal/orchestrator"
)

var (
	generateGoal          string
	generateDomain        string
	generateMaxIterations int
	generateTargetLang    string
	generateRepoRoot      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full proposal -> implementation -> codegen pipeline",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateGoal, "goal", "", "project goal (required)")
	generateCmd.Flags().StringVar(&generateDomain, "domain", "", "domain filter for feature retrieval")
	generateCmd.Flags().IntVar(&generateMaxIterations, "max-iterations", 0, "exploit/explore/missing loop bound (default: config value)")
	generateCmd.Flags().StringVar(&generateTargetLang, "target-language", "python", "target language for generated source (informational)")
	generateCmd.Flags().StringVar(&generateRepoRoot, "out", "", "directory to materialize the generated repository into (required)")
	generateCmd.MarkFlagRequired("goal")
	generateCmd.MarkFlagRequired("out")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	orch, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("proposal"),
		progressbar.OptionShowCount(),
	)
	currentStage := "proposal"

	report := func(stage string, progress int) {
		if stage != currentStage {
			currentStage = stage
			bar.Describe(stage)
			bar.Reset()
		}
		bar.Set(progress)
	}

	maxIterations := generateMaxIterations
	if maxIterations <= 0 {
		maxIterations = cfg.Execution.ProposalMaxIter
	}

	result, err := orch.Run(context.Background(), orchestrator.Request{
		ProjectGoal:   generateGoal,
		Domain:        generateDomain,
		MaxIterations: maxIterations,
		RepoRoot:      generateRepoRoot,
	}, report)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	bar.Finish()
	fmt.Println()

	success, _ := result["success"].(bool)
	if !success {
		if errMsg, ok := result["error"].(string); ok {
			return fmt.Errorf("generate: %s", errMsg)
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return fmt.Errorf("generate: pipeline finished with partial or no success")
	}

	color.New(color.FgGreen).Printf("repository generated at %s\n", generateRepoRoot)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
