package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zerorepo/zerorepo/internal/config"
)

var initTemplate string

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Scaffold a new zerorepo workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&initTemplate, "template", "default", "starting config template (default, minimal)")
}

func runInit(cmd *cobra.Command, args []string) error {
	name := args[0]

	ws, err := filepath.Abs(name)
	if err != nil {
		return fmt.Errorf("resolve workspace path: %w", err)
	}
	if err := os.MkdirAll(ws, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	newCfg := config.DefaultConfig()
	newCfg.Name = name
	if initTemplate == "minimal" {
		newCfg.Embedding.Provider = "ollama"
		newCfg.Sandbox.PreferDocker = false
	}

	configFile := filepath.Join(ws, ".zerorepo", "config.yaml")
	if err := newCfg.Save(configFile); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	for _, dir := range []string{"src", "tests", ".zerorepo/logs"} {
		if err := os.MkdirAll(filepath.Join(ws, dir), 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	color.New(color.FgGreen).Printf("initialized workspace at %s\n", ws)
	fmt.Println(configFile)
	return nil
}
