package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zerorepo/zerorepo/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the job facade HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config value, :8099)")
}

func runServe(cmd *cobra.Command, args []string) error {
	orch, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	jobs, closeJobs, err := buildJobStore(cfg)
	if err != nil {
		return err
	}
	defer closeJobs()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv := httpapi.New(httpapi.Config{
		Addr:     addr,
		Jobs:     jobs,
		ReposDir: cfg.Name + "-repos",
		Models:   []string{cfg.LLM.Model},
	}, orch)

	color.New(color.FgCyan).Printf("zerorepo job facade listening on %s\n", addr)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
