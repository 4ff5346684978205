package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/orgogpt/orgogpt/internal/display"
	"github.com/orgogpt/orgogpt/internal/session"
)

var (
	runOutput       string
	runModel        string
	runNoScreenshot bool
)

var runCmd = &cobra.Command{
	Use:   "run <input...>",
	Short: "Run a command or plain-English request on the desktop",
	Long: `Run a shell command, or a plain-English request that is translated into
one, on the connected desktop. Connects first if needed.

Examples:
  orgogpt run ls -la
  orgogpt run "open google and search for cats"
  orgogpt run -o json "go to github.com"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run tasks interactively",
	Long: `Read tasks line by line and run each on the desktop.

Type "exit" or send EOF to leave. The desktop stays up; use
'orgogpt disconnect' to destroy it.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	for _, c := range []*cobra.Command{runCmd, shellCmd} {
		c.Flags().StringVar(&runModel, "model", "", "override the translation model")
		c.Flags().BoolVar(&runNoScreenshot, "no-screenshot", false, "skip the screenshot after a successful task")
		rootCmd.AddCommand(c)
	}
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "text", "output format: text, json or yaml")
}

func taskOptions() session.TaskOptions {
	return session.TaskOptions{Model: runModel, SkipScreenshot: runNoScreenshot}
}

func runRun(cmd *cobra.Command, args []string) error {
	format, err := display.ParseFormat(runOutput)
	if err != nil {
		return err
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}

	input := strings.Join(args, " ")
	Debug("Running %q", input)
	result := a.manager.Run(cmd.Context(), input, taskOptions())
	a.record(input, result)

	if err := display.PrintResult(cmd.OutOrStdout(), result, format); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("task failed")
	}
	return nil
}

func runShell(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	out := cmd.OutOrStdout()
	if interactive {
		_, _ = fmt.Fprintln(out, "orgogpt shell. Type a command or a request, \"exit\" to quit.")
	}

	return shellLoop(cmd, a, cmd.InOrStdin(), out, interactive)
}

func shellLoop(cmd *cobra.Command, a *app, in io.Reader, out io.Writer, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			st := a.manager.Status()
			label := "disconnected"
			if st.IsConnected {
				label = shortID(st.ProjectID)
			}
			_, _ = fmt.Fprintf(out, "orgo[%s]> ", label)
		}
		if !scanner.Scan() {
			if prompt {
				_, _ = fmt.Fprintln(out)
			}
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		result := a.manager.Run(cmd.Context(), line, taskOptions())
		a.record(line, result)
		if err := display.PrintResult(out, result, display.FormatText); err != nil {
			return err
		}
		if cmd.Context().Err() != nil {
			return cmd.Context().Err()
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
