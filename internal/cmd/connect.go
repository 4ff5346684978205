package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgogpt/orgogpt/internal/display"
)

var connectCmd = &cobra.Command{
	Use:   "connect [project-id]",
	Short: "Connect to an Orgo desktop",
	Long: `Connect to an Orgo desktop and wait until it is ready.

Without an argument the last used project is restored. If it no longer
exists, or none was stored, a new desktop is created. The project id is
remembered for later commands.

Examples:
  orgogpt connect
  orgogpt connect 3f2b9c1e-7a4d-4e8f-9b21-5c6d7e8f9a0b`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	id := ""
	if len(args) == 1 {
		id = args[0]
		if note := staleNote(id); note != "" {
			fmt.Println(note)
		}
	}
	if id == "" {
		id = a.storedProject()
	}

	if id != "" && staleNote(id) == "" {
		fmt.Printf("Connecting to project %s...\n", id)
	} else {
		fmt.Println("Creating a new desktop...")
	}

	st, err := a.manager.Connect(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	fmt.Printf("Connected to project %s\n", st.ProjectID)
	return display.PrintStatus(cmd.OutOrStdout(), display.StatusView{Status: st, StoredProjectID: a.storedProject()}, display.FormatText)
}
