package cmd

import (
	"github.com/spf13/cobra"

	"github.com/orgogpt/orgogpt/internal/display"
)

var historyOutput string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tasks",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := display.ParseFormat(historyOutput)
	if err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}

	tasks, err := a.history.List()
	if err != nil {
		return err
	}
	return display.PrintHistory(cmd.OutOrStdout(), tasks, format)
}
