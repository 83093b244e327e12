// Package render formats query results for terminal output.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/crosscli/go-crosscli/internal/crosscli"
	"github.com/crosscli/go-crosscli/internal/i18n"
)

// Format selects the output layout for session listings.
type Format string

const (
	FormatSummary  Format = "summary"
	FormatTimeline Format = "timeline"
	FormatDetailed Format = "detailed"
	FormatContext  Format = "context"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSummary, FormatTimeline, FormatDetailed, FormatContext:
		return Format(s), nil
	case "":
		return FormatSummary, nil
	}
	return "", fmt.Errorf("unknown format %q (summary, timeline, detailed, context)", s)
}

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 100

// Options configures a Renderer. The zero value uses time.Now and
// DefaultWidth.
type Options struct {
	Now   time.Time // reference for relative times
	Width int       // terminal width for truncation
}

// Renderer writes session listings and context payloads.
type Renderer struct {
	w     io.Writer
	now   time.Time
	width int
}

// New creates a renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	width := opts.Width
	if width < 40 {
		width = DefaultWidth
	}
	return &Renderer{w: w, now: now, width: width}
}

// Sessions renders a listing in the given format. FormatContext is not a
// listing format and is rejected here; use Context instead.
func (r *Renderer) Sessions(sessions []crosscli.SessionMeta, format Format) error {
	if len(sessions) == 0 {
		fmt.Fprintln(r.w, i18n.T("render.noSessions", "No sessions found."))
		return nil
	}
	switch format {
	case FormatSummary, "":
		return r.renderSummary(sessions)
	case FormatTimeline:
		return r.renderTimeline(sessions)
	case FormatDetailed:
		return r.renderDetailed(sessions)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// JSON writes v as indented JSON, for --json output.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderSummary prints one numbered line per session:
//
//	1. [claude]   2 hours ago    fix auth bug in login handler
//	              ~/src/webapp · 34 messages
func (r *Renderer) renderSummary(sessions []crosscli.SessionMeta) error {
	for i, s := range sessions {
		summary := s.Summary
		if summary == "" {
			summary = i18n.T("render.noSummary", "(no summary)")
		}
		rel := i18n.RelativeTimeAt(s.LastActivityAt, r.now)

		head := fmt.Sprintf("%2d. [%s]  %-12s  ", i+1, s.Source, rel)
		fmt.Fprintf(r.w, "%s%s\n", head, crosscli.TruncateString(summary, r.width-len(head)))

		project := s.ProjectPath
		if project == "" {
			project = i18n.T("render.unknownProject", "(unknown project)")
		}
		fmt.Fprintf(r.w, "    %s · %s\n", project,
			i18n.Tn("render.messages", "{{.Count}} message", "{{.Count}} messages", s.MessageCount))
	}
	return nil
}

// renderTimeline groups sessions by calendar day of last activity, most
// recent day first, chronological within each day.
func (r *Renderer) renderTimeline(sessions []crosscli.SessionMeta) error {
	type dayGroup struct {
		day      time.Time
		sessions []crosscli.SessionMeta
	}

	groups := make(map[time.Time]*dayGroup)
	var order []*dayGroup
	for _, s := range sessions {
		day := startOfDay(s.LastActivityAt)
		g, ok := groups[day]
		if !ok {
			g = &dayGroup{day: day}
			groups[day] = g
			order = append(order, g)
		}
		g.sessions = append(g.sessions, s)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].day.After(order[j].day) })

	for _, g := range order {
		fmt.Fprintf(r.w, "%s\n", r.dayLabel(g.day))

		within := make([]crosscli.SessionMeta, len(g.sessions))
		copy(within, g.sessions)
		sort.Slice(within, func(i, j int) bool {
			return within[i].LastActivityAt.Before(within[j].LastActivityAt)
		})

		for _, s := range within {
			summary := s.Summary
			if summary == "" {
				summary = i18n.T("render.noSummary", "(no summary)")
			}
			head := fmt.Sprintf("  %s  [%s]  ", s.LastActivityAt.Local().Format("15:04"), s.Source)
			fmt.Fprintf(r.w, "%s%s\n", head, crosscli.TruncateString(summary, r.width-len(head)))
		}
	}
	return nil
}

var detailedTemplate = template.Must(template.New("detailed").Parse(
	`{{range .}}{{.Index}}. {{.ID}} [{{.Source}}]
  {{.L.Project}}:      {{.ProjectPath}}
  {{.L.Started}}:      {{.StartedAt}}
  {{.L.LastActivity}}: {{.LastActivity}}
  {{.L.Messages}}:     {{.Messages}}{{if .Model}}
  {{.L.Model}}:        {{.Model}}{{end}}{{if .Branch}}
  {{.L.Branch}}:       {{.Branch}}{{end}}{{if .Summary}}
  {{.L.Summary}}:      {{.Summary}}{{end}}
  {{.L.File}}:         {{.FullPath}}{{if .Size}} ({{.Size}}){{end}}

{{end}}`))

type detailedLabels struct {
	Project, Started, LastActivity, Messages, Model, Branch, Summary, File string
}

type detailedData struct {
	Index        int
	ID           string
	Source       string
	ProjectPath  string
	StartedAt    string
	LastActivity string
	Messages     int
	Model        string
	Branch       string
	Summary      string
	FullPath     string
	Size         string
	L            detailedLabels
}

// renderDetailed prints a full metadata block per session.
func (r *Renderer) renderDetailed(sessions []crosscli.SessionMeta) error {
	labels := detailedLabels{
		Project:      i18n.T("render.detail.project", "Project"),
		Started:      i18n.T("render.detail.started", "Started"),
		LastActivity: i18n.T("render.detail.lastActivity", "Last activity"),
		Messages:     i18n.T("render.detail.messages", "Messages"),
		Model:        i18n.T("render.detail.model", "Model"),
		Branch:       i18n.T("render.detail.branch", "Branch"),
		Summary:      i18n.T("render.detail.summary", "Summary"),
		File:         i18n.T("render.detail.file", "File"),
	}
	data := make([]detailedData, len(sessions))
	for i, s := range sessions {
		data[i] = detailedData{
			Index:        i + 1,
			ID:           s.ID,
			Source:       string(s.Source),
			ProjectPath:  s.ProjectPath,
			StartedAt:    formatStamp(s.StartedAt),
			LastActivity: fmt.Sprintf("%s (%s)", formatStamp(s.LastActivityAt), i18n.RelativeTimeAt(s.LastActivityAt, r.now)),
			Messages:     s.MessageCount,
			Model:        s.Model,
			Branch:       s.GitBranch,
			Summary:      s.Summary,
			FullPath:     s.FullPath,
			Size:         formatSize(s.FileSize),
			L:            labels,
		}
	}
	return detailedTemplate.Execute(r.w, data)
}

// Context renders an extracted conversation tail as readable text, oldest
// message first.
func (r *Renderer) Context(payload *crosscli.ContextPayload) error {
	fmt.Fprintf(r.w, "# %s · %s\n", payload.CLIName.DisplayName(), payload.SessionID)
	if payload.ProjectPath != "" {
		fmt.Fprintf(r.w, "# %s: %s\n", i18n.T("render.detail.project", "Project"), payload.ProjectPath)
	}
	fmt.Fprintf(r.w, "# %s\n", i18n.Tf("render.context.header", "Recent conversation (%d messages)", len(payload.RecentMessages)))
	if payload.Truncated {
		fmt.Fprintf(r.w, "# [%s]\n", i18n.T("render.context.truncatedNote", "earlier messages omitted"))
	}
	fmt.Fprintln(r.w)

	for _, m := range payload.RecentMessages {
		role := string(m.Role)
		if !m.Timestamp.IsZero() {
			fmt.Fprintf(r.w, "%s (%s):\n", role, m.Timestamp.Local().Format("2006-01-02 15:04"))
		} else {
			fmt.Fprintf(r.w, "%s:\n", role)
		}
		for _, line := range strings.Split(strings.TrimRight(m.Text, "\n"), "\n") {
			fmt.Fprintf(r.w, "  %s\n", line)
		}
		fmt.Fprintln(r.w)
	}
	return nil
}

func (r *Renderer) dayLabel(day time.Time) string {
	today := startOfDay(r.now)
	switch {
	case day.Equal(today):
		return i18n.T("render.timeline.today", "Today")
	case day.Equal(today.AddDate(0, 0, -1)):
		return i18n.T("render.timeline.yesterday", "Yesterday")
	default:
		return day.Format("2006-01-02")
	}
}

// formatSize renders a byte count compactly; zero means unknown.
func formatSize(n int64) string {
	switch {
	case n <= 0:
		return ""
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func startOfDay(t time.Time) time.Time {
	l := t.Local()
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.Local)
}
