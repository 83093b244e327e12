package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crosscli/go-crosscli/internal/config"
)

var initAdapters []string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Mark the current directory as a project",
	Long: `Write a ` + config.MarkerFile + ` marker into the current directory.

The marker scopes future queries to this project and records which
adapters it uses. Without --adapter, all currently detected CLIs are
recorded.

Examples:
  crosscli init
  crosscli init --adapter claude --adapter codex`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	selected := initAdapters
	if len(selected) == 0 {
		registry := newRegistry()
		ctx := context.Background()
		for _, a := range registry.All() {
			if a.Detect(ctx).Installed {
				selected = append(selected, string(a.Source()))
			}
		}
	}

	if err := config.SaveMarker(cwd, config.Marker{Adapters: selected}); err != nil {
		return err
	}
	fmt.Printf("wrote %s (adapters: %v)\n", config.MarkerFile, selected)
	return nil
}
