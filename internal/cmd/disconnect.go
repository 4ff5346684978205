package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Destroy the current desktop",
	Long: `Destroy the remembered desktop and forget its project id.

Running it again with nothing connected is a no-op.`,
	Args: cobra.NoArgs,
	RunE: runDisconnect,
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}

func runDisconnect(cmd *cobra.Command, args []string) error {
	// A fresh process holds no live handle, so the stored project is the
	// only thing to tear down.
	a, err := newApp(true)
	if err != nil {
		return err
	}

	id, err := a.forgetStored(cmd.Context())
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Println("Not connected.")
		return nil
	}
	fmt.Printf("Destroyed project %s\n", id)
	return nil
}
