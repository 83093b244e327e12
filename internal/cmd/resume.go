package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/crosscli/go-crosscli/internal/clilog"
	"github.com/crosscli/go-crosscli/internal/config"
	"github.com/crosscli/go-crosscli/internal/crosscli"
	"github.com/crosscli/go-crosscli/internal/render"
)

// Resume command flags
var (
	resumeCLI     string
	resumeSearch  string
	resumeLimit   int
	resumeToday   bool
	resumeWeek    bool
	resumeMonth   bool
	resumeFormat  string
	resumeProject string
	resumeAll     bool
	resumeExec    bool
	resumeJSON    bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Find past sessions and optionally resume one",
	Long: `Query the unified session index across all detected AI assistant CLIs.

By default results are scoped to the current project (the nearest directory
holding a ` + config.MarkerFile + ` marker, or the working directory). Use --all
to search everything.

With --exec, the most recent match is resumed by handing control back to
its original tool (e.g. claude --resume <id>).

Examples:
  crosscli resume                          # recent sessions, this project
  crosscli resume --search "migration"     # keyword search
  crosscli resume --cli claude --week      # claude sessions this week
  crosscli resume --format timeline --all  # everything, grouped by day
  crosscli resume --search "auth" --exec   # jump back into the top match`,
	RunE: runResume,
}

// addResumeFlags registers the query flags on a command. The root command
// runs resume by default, so both commands carry the same set.
func addResumeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&resumeCLI, "cli", "c", "", "restrict to one tool (claude|codex|gemini|qwen|iflow)")
	cmd.Flags().StringVarP(&resumeSearch, "search", "s", "", "keyword over summaries and message content")
	cmd.Flags().IntVarP(&resumeLimit, "limit", "n", 0, "max results (default from config, 0 = config default)")
	cmd.Flags().BoolVar(&resumeToday, "today", false, "sessions active today")
	cmd.Flags().BoolVar(&resumeWeek, "week", false, "sessions active in the last 7 days")
	cmd.Flags().BoolVar(&resumeMonth, "month", false, "sessions active in the last 30 days")
	cmd.Flags().StringVarP(&resumeFormat, "format", "f", "", "output format (summary|timeline|detailed|context)")
	cmd.Flags().StringVarP(&resumeProject, "project", "p", "", "project path to scope to")
	cmd.Flags().BoolVarP(&resumeAll, "all", "a", false, "search all projects")
	cmd.Flags().BoolVar(&resumeExec, "exec", false, "resume the most recent match in its original tool")
	cmd.Flags().BoolVar(&resumeJSON, "json", false, "output as JSON")
}

func runResume(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(pickString(resumeFormat, cfg.Query.Format))
	if err != nil {
		return err
	}

	rng, err := resolveRange(time.Now())
	if err != nil {
		return err
	}

	registry := newRegistry()

	// Ctrl+C during a slow scan cancels in-flight adapters; results
	// already collected are still merged and rendered.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spec := crosscli.QuerySpec{
		CLI:     crosscli.Source(resumeCLI),
		Keyword: resumeSearch,
		Range:   rng,
		Limit:   resumeLimit,
	}
	if spec.Limit <= 0 {
		spec.Limit = cfg.Query.Limit
	}

	// Project scoping: explicit flag beats marker beats cwd; --all lifts it.
	var marker *config.Marker
	scope := resumeProject
	if scope == "" && !resumeAll {
		if cwd, err := os.Getwd(); err == nil {
			marker, _ = config.FindMarker(cwd)
			if marker != nil {
				scope = marker.Dir
			} else {
				scope = cwd
			}
		}
	}
	spec.ProjectPath = scope

	sources := knownSources(registry, configuredSources())
	if marker != nil && len(marker.Adapters) > 0 {
		fromMarker := make([]crosscli.Source, 0, len(marker.Adapters))
		for _, name := range marker.Adapters {
			fromMarker = append(fromMarker, crosscli.Source(name))
		}
		sources = knownSources(registry, fromMarker)
	}
	if spec.CLI != "" {
		sources = []crosscli.Source{spec.CLI}
	}

	result, err := crosscli.Scan(ctx, registry, crosscli.ScanOptions{
		Sources: sources,
		Timeout: scanTimeout(),
	})
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		clilog.Log.Warn(w)
	}

	deep := crosscli.RegistrySearcher(registry)
	sessions, err := crosscli.Query(ctx, result.Index, spec, deep)
	if err != nil {
		return err
	}

	// An implicit cwd scope that matches nothing falls back to all
	// projects, so running from an unrelated directory stays useful.
	if len(sessions) == 0 && spec.ProjectPath != "" && resumeProject == "" {
		clilog.Log.Debug("no sessions in project scope, retrying unscoped", "scope", spec.ProjectPath)
		spec.ProjectPath = ""
		sessions, err = crosscli.Query(ctx, result.Index, spec, deep)
		if err != nil {
			return err
		}
	}

	if resumeExec {
		return execResume(registry, sessions)
	}

	r := render.New(os.Stdout, render.Options{Width: terminalWidth()})

	if format == render.FormatContext {
		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "no session to extract context from")
			return nil
		}
		payload, err := crosscli.ExtractContext(ctx, registry, sessions[0], 0)
		if err != nil {
			return err
		}
		if resumeJSON {
			return r.JSON(payload)
		}
		return r.Context(payload)
	}

	if resumeJSON {
		return r.JSON(sessions)
	}
	return r.Sessions(sessions, format)
}

// execResume hands control to the original tool of the top match.
func execResume(registry *crosscli.Registry, sessions []crosscli.SessionMeta) error {
	if len(sessions) == 0 {
		return fmt.Errorf("no matching session to resume")
	}
	meta := sessions[0]

	adapter, ok := registry.Get(meta.Source)
	if !ok {
		return fmt.Errorf("%w: %s", crosscli.ErrUnknownCLI, meta.Source)
	}
	resumer, ok := adapter.(crosscli.SessionResumer)
	if !ok {
		return fmt.Errorf("%s does not support resuming sessions", meta.Source.DisplayName())
	}
	info, err := resumer.ResumeCommand(meta)
	if err != nil {
		return err
	}

	clilog.Log.Info("resuming session", "cli", meta.Source, "id", meta.ID)
	return crosscli.ExecResume(info)
}

// resolveRange maps the --today/--week/--month flags to a time range.
func resolveRange(now time.Time) (*crosscli.TimeRange, error) {
	n := 0
	for _, set := range []bool{resumeToday, resumeWeek, resumeMonth} {
		if set {
			n++
		}
	}
	if n > 1 {
		return nil, fmt.Errorf("%w: --today, --week and --month are mutually exclusive", crosscli.ErrInvalidTimeRange)
	}
	switch {
	case resumeToday:
		rng := crosscli.Today(now)
		return &rng, nil
	case resumeWeek:
		rng := crosscli.Week(now)
		return &rng, nil
	case resumeMonth:
		rng := crosscli.Month(now)
		return &rng, nil
	}
	return nil, nil
}

// knownSources drops names no registered adapter claims, with a warning.
// Only an explicit --cli may abort on an unknown name.
func knownSources(registry *crosscli.Registry, sources []crosscli.Source) []crosscli.Source {
	out := sources[:0]
	for _, s := range sources {
		if _, ok := registry.Get(s); ok {
			out = append(out, s)
		} else {
			clilog.Log.Warn("ignoring unknown adapter name", "name", s)
		}
	}
	return out
}

func pickString(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

// terminalWidth returns the stdout width, or 0 when not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w
	}
	return 0
}
