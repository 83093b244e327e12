package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crosscli/go-crosscli/internal/clilog"
	"github.com/crosscli/go-crosscli/internal/crosscli"
	"github.com/crosscli/go-crosscli/internal/i18n"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List supported CLIs with detection status",
	Long: `List every supported AI assistant CLI with its detection status,
version, session storage path and session count.

Examples:
  crosscli adapters
  crosscli adapters --json`,
	RunE: runAdapters,
}

func runAdapters(cmd *cobra.Command, args []string) error {
	registry := newRegistry()

	result, err := crosscli.Scan(context.Background(), registry, crosscli.ScanOptions{
		Timeout: scanTimeout(),
	})
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		clilog.Log.Warn(w)
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Statuses)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tVERSION\tSESSIONS\tPATH")
	for _, st := range result.Statuses {
		status := i18n.T("adapters.notInstalled", "not installed")
		if st.Detection.Installed {
			status = i18n.T("adapters.installed", "installed")
		}
		if st.Degraded {
			status = i18n.T("adapters.degraded", "degraded")
		}
		version := st.Detection.Version
		if version == "" {
			version = "-"
		}
		path := st.Detection.BasePath
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", st.Source, status, version, st.SessionCount, path)
	}
	return w.Flush()
}
