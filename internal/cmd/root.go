package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	offline bool
)

// Debug prints a message if debug mode is enabled
func Debug(format string, args ...interface{}) {
	if debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "orgogpt",
	Short: "orgogpt - drive an Orgo virtual desktop from the terminal",
	Long: `orgogpt manages a remote Orgo desktop and runs tasks on it.

Connect to (or create) a desktop:
  orgogpt connect
  orgogpt connect <project-id>

Run commands or plain-English requests:
  orgogpt run ls -la
  orgogpt run "open google and search for cats"
  orgogpt shell

Inspect and tear down:
  orgogpt status --remote
  orgogpt disconnect`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set debug env var for subpackages
		if debug {
			_ = os.Setenv("ORGOGPT_DEBUG", "1")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Commands see a context that is cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.orgogpt/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use an in-memory desktop and rule-based translator")
}
