package cmd

import (
	"github.com/spf13/cobra"

	"github.com/orgogpt/orgogpt/internal/display"
	"github.com/orgogpt/orgogpt/internal/session"
)

var (
	statusOutput string
	statusRemote bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the connection status",
	Long: `Show the connection status and the remembered project id.

With --remote the provider is asked for the project's current state.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "output format: text, json or yaml")
	statusCmd.Flags().BoolVar(&statusRemote, "remote", false, "query the provider for the project's state")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := display.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	a, err := newApp(statusRemote)
	if err != nil {
		return err
	}

	view := display.StatusView{
		Status:          session.Disconnected(),
		StoredProjectID: a.storedProject(),
	}

	if statusRemote && view.StoredProjectID != "" {
		c, err := a.provider.Lookup(cmd.Context(), view.StoredProjectID)
		if err != nil {
			view.Error = err.Error()
		} else if state, err := c.Status(cmd.Context()); err != nil {
			view.Error = err.Error()
		} else {
			view.RemoteState = state
		}
	}

	return display.PrintStatus(cmd.OutOrStdout(), view, format)
}
