// Package cmd provides the CLI commands for crosscli.
package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/crosscli/go-crosscli/internal/adapters"
	"github.com/crosscli/go-crosscli/internal/clilog"
	"github.com/crosscli/go-crosscli/internal/config"
	"github.com/crosscli/go-crosscli/internal/crosscli"
	"github.com/crosscli/go-crosscli/internal/i18n"
)

// global flags
var (
	logPath    string
	verbose    bool
	langFlag   string
	outputJSON bool
)

// cfg is loaded once in the persistent pre-run and shared by all commands.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "crosscli",
	Short: "Find and resume AI assistant CLI sessions across tools",
	Long: `crosscli aggregates the session history of AI coding assistant CLIs
into one searchable index, so you can find and resume a past conversation
no matter which tool it happened in.

Supports: Claude Code, Codex CLI, Gemini CLI, Qwen Code, iFlow CLI

Running without a subcommand queries recent sessions (same as 'resume').

Examples:
  crosscli                              # recent sessions in this project
  crosscli resume --search "auth bug"   # keyword search
  crosscli resume --cli codex --today   # today's codex sessions
  crosscli resume --format context      # extraction payload for hand-off
  crosscli adapters                     # show detected CLIs
  crosscli serve                        # local HTTP + metrics server`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := clilog.Init(logPath, verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		lang := langFlag
		if lang == "" {
			lang = cfg.Language
		}
		i18n.Init(i18n.ResolveLocale(lang))
		return nil
	},
	RunE: runResume,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newRegistry builds the adapter registry from the loaded config.
func newRegistry() *crosscli.Registry {
	return adapters.NewRegistry(cfg.Scan.CacheTTLDuration())
}

// configuredSources returns the adapter filter from config, if any.
func configuredSources() []crosscli.Source {
	out := make([]crosscli.Source, 0, len(cfg.Scan.Adapters))
	for _, name := range cfg.Scan.Adapters {
		out = append(out, crosscli.Source(name))
	}
	return out
}

func scanTimeout() time.Duration {
	return cfg.Scan.TimeoutDuration()
}

func init() {
	// Global flags on root
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write debug log to file (default: stderr)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "output language (en, zh-Hans)")

	// The root command doubles as resume, so it carries the same flags.
	addResumeFlags(rootCmd)
	addResumeFlags(resumeCmd)

	adaptersCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "server port (default 7465)")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "server host")
	serveCmd.AddCommand(serveMcpCmd)

	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")

	initCmd.Flags().StringArrayVar(&initAdapters, "adapter", nil, "adapter to record in the marker (repeatable, default: all detected)")

	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(adaptersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
