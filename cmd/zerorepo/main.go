// Package main implements the zerorepo CLI: the Repository Planning Graph
// pipeline's one-shot command-line surface, plus the `serve` subcommand
// that starts the job facade HTTP server.
//
// # File Index
//
//   - main.go       - entry point, rootCmd, global flags, config loading
//   - wiring.go     - builds the store/gateway/sandboxer/orchestrator from config
//   - cmd_plan.go   - plan subcommand: Stage A only
//   - cmd_build.go  - build subcommand: extends an existing capability graph with Stage B
//   - cmd_generate.go - generate subcommand: the full A->B->C pipeline
//   - cmd_eval.go   - eval subcommand: runs a generated repo's test suite
//   - cmd_init.go   - init subcommand: scaffolds a new workspace
//   - cmd_serve.go  - serve subcommand: starts the job facade HTTP server
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zerorepo/zerorepo/internal/config"
	"github.com/zerorepo/zerorepo/internal/logging"
)

var (
	workspace  string
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "zerorepo",
	Short: "zerorepo - Repository Planning Graph pipeline",
	Long: `zerorepo turns a project goal into a generated, tested repository
through three stages: proposal (capability selection), implementation
(folder/file/interface skeleton), and codegen (TDD-style synthesis).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace
		if ws == "" {
			var err error
			ws, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve workspace: %w", err)
			}
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
		}

		path := configPath
		if path == "" {
			path = filepath.Join(ws, ".zerorepo", "config.yaml")
		}
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			loaded.Logging.DebugMode = true
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: <workspace>/.zerorepo/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(planCmd, buildCmd, generateCmd, evalCmd, initCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
