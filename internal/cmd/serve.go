package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgogpt/orgogpt/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve the lifecycle manager over HTTP.

Routes:
  POST /api/orgo            {"action": "connect|disconnect|process|status", ...}
  GET  /api/orgo/projects   list the account's projects
  GET  /healthz

The server keeps one desktop for all clients. Stop it with Ctrl-C; the
desktop is left running unless a client disconnected it.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.listen)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Listen
	}

	ctx := cmd.Context()
	go a.manager.Monitor(ctx, a.cfg.Session.RefreshInterval)

	fmt.Printf("orgogpt serve listening on %s\n", addr)
	srv := server.New(a.manager, a.provider, a.history)
	if err := srv.Serve(ctx, addr, a.cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	fmt.Println("Server stopped.")
	return nil
}
