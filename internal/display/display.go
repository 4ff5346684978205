package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/orgogpt/orgogpt/internal/session"
	"github.com/orgogpt/orgogpt/internal/vm"
)

const (
	maxOutputLines   = 40
	maxHistoryInputs = 60
)

// Format selects how values are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an -o flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// encode writes v as JSON or YAML. It reports false for FormatText.
func encode(w io.Writer, format Format, v interface{}) (bool, error) {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

// StatusView is a connection status plus the persisted identifier, which is
// what a fresh CLI process can actually report.
type StatusView struct {
	session.Status  `yaml:",inline"`
	StoredProjectID string   `json:"storedProjectId,omitempty" yaml:"stored_project_id,omitempty"`
	RemoteState     vm.State `json:"remoteState,omitempty" yaml:"remote_state,omitempty"`
}

// PrintStatus renders a status view.
func PrintStatus(w io.Writer, s StatusView, format Format) error {
	if done, err := encode(w, format, s); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	state := string(s.State)
	if s.Phase != session.PhaseNone {
		state += " (" + string(s.Phase) + ")"
	}
	_, _ = fmt.Fprintf(tw, "State:\t%s\n", state)
	_, _ = fmt.Fprintf(tw, "Connected:\t%t\n", s.IsConnected)
	_, _ = fmt.Fprintf(tw, "Running:\t%t\n", s.IsRunning)
	if s.ProjectID != "" {
		_, _ = fmt.Fprintf(tw, "Project:\t%s\n", s.ProjectID)
	}
	if s.StoredProjectID != "" && s.StoredProjectID != s.ProjectID {
		_, _ = fmt.Fprintf(tw, "Stored project:\t%s\n", s.StoredProjectID)
	}
	if s.RemoteState != "" {
		_, _ = fmt.Fprintf(tw, "Remote state:\t%s\n", s.RemoteState)
	}
	if s.Error != "" {
		_, _ = fmt.Fprintf(tw, "Error:\t%s\n", s.Error)
	}
	return tw.Flush()
}

// PrintResult renders one task result.
func PrintResult(w io.Writer, r *session.TaskResult, format Format) error {
	if r == nil {
		return nil
	}
	if done, err := encode(w, format, r); done {
		return err
	}

	if r.Mode == session.ModeNaturalLanguage && r.Command != "" {
		_, _ = fmt.Fprintf(w, "→ %s\n", r.Command)
	}

	if r.Output != "" {
		printOutput(w, r.Output)
	}

	if !r.Success {
		phase := ""
		if r.Phase != "" {
			phase = " (" + r.Phase + ")"
		}
		_, _ = fmt.Fprintf(w, "Error%s: %s\n", phase, r.Error)
		if len(r.Suggestions) > 0 {
			_, _ = fmt.Fprintf(w, "Try one of: %s\n", strings.Join(r.Suggestions, ", "))
		}
		return nil
	}

	if n := len(r.Screenshots); n > 0 {
		_, _ = fmt.Fprintf(w, "(%d screenshot captured, use -o json to retrieve)\n", n)
	}
	return nil
}

// printOutput prints command output, keeping only the tail when it is long
func printOutput(w io.Writer, out string) {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) > maxOutputLines {
		_, _ = fmt.Fprintf(w, "... (%d earlier lines omitted)\n", len(lines)-maxOutputLines)
		lines = lines[len(lines)-maxOutputLines:]
	}
	for _, l := range lines {
		_, _ = fmt.Fprintln(w, l)
	}
}

// PrintProjects renders the provider's project list.
func PrintProjects(w io.Writer, projects []vm.Info, active string, format Format) error {
	if done, err := encode(w, format, projects); done {
		return err
	}

	if len(projects) == 0 {
		_, _ = fmt.Fprintln(w, "No projects.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSTATE\t")
	_, _ = fmt.Fprintln(tw, "--\t----\t-----\t")
	for _, p := range projects {
		marker := ""
		if p.ID == active {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.State, marker)
	}
	return tw.Flush()
}

// PrintHistory renders the task history, newest first.
func PrintHistory(w io.Writer, tasks []*session.Task, format Format) error {
	if done, err := encode(w, format, tasks); done {
		return err
	}

	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(w, "No tasks yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tSTATUS\tMODE\tINPUT")
	_, _ = fmt.Fprintln(tw, "----\t------\t----\t-----")
	for _, t := range tasks {
		mode := ""
		if t.Result != nil {
			mode = string(t.Result.Mode)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			t.Timestamp.Local().Format("2006-01-02 15:04:05"),
			t.Status,
			mode,
			truncate(t.Input, maxHistoryInputs),
		)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
