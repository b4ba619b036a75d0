package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zerorepo/zerorepo/internal/implementation"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

var (
	buildRPGPath string
	buildOut     string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run Stage B (implementation) against an existing capability graph",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildRPGPath, "rpg", "", "path to a capability graph JSON file, as written by plan (required)")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "write the extended graph JSON here instead of stdout")
	buildCmd.MarkFlagRequired("rpg")
}

func runBuild(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(buildRPGPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", buildRPGPath, err)
	}

	var g rpg.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return fmt.Errorf("parse capability graph: %w", err)
	}

	gw := buildGateway(cfg)
	implCtrl := implementation.NewController(gw)
	extended, result, err := implCtrl.Run(context.Background(), &g)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	out, err := json.MarshalIndent(extended, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal extended graph: %w", err)
	}

	if buildOut == "" {
		fmt.Println(string(out))
	} else {
		if err := os.WriteFile(buildOut, out, 0644); err != nil {
			return fmt.Errorf("write %s: %w", buildOut, err)
		}
		color.New(color.FgGreen).Printf("extended graph written to %s\n", buildOut)
	}

	color.New(color.FgCyan).Printf("materialized %d interface stub(s), %d base class(es)\n",
		len(result.Interfaces), len(result.BaseClasses))
	return nil
}
