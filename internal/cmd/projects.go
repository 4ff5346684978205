package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgogpt/orgogpt/internal/display"
)

var projectsOutput string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the account's Orgo projects",
	Long:  `List all projects on the Orgo account. The remembered project is marked with *.`,
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

var keyCmd = &cobra.Command{
	Use:   "key <key>",
	Short: "Send a key press to the desktop",
	Long: `Send one key press (for example Enter, Escape or ctrl+c) to the connected
desktop. Connects first if needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runKey,
}

func init() {
	projectsCmd.Flags().StringVarP(&projectsOutput, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(keyCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
	format, err := display.ParseFormat(projectsOutput)
	if err != nil {
		return err
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}

	projects, err := a.provider.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	return display.PrintProjects(cmd.OutOrStdout(), projects, a.storedProject(), format)
}

func runKey(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	if _, err := a.manager.Connect(cmd.Context(), ""); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if err := a.manager.Key(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to send key: %w", err)
	}
	fmt.Printf("Sent %s\n", args[0])
	return nil
}
