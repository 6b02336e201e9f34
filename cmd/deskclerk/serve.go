package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deskclerk/deskclerk/internal/mcp"
)

var serveStdio bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the record tools over MCP",
	Long: `Start the MCP server exposing the generic record tools. The default
transport is HTTP (with the UI WebSocket mounted at /ws); --stdio speaks
newline-delimited JSON-RPC on stdin/stdout for editor-style clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The stdio transport has no way to reach a UI process.
		a, err := newApp(!serveStdio)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := mcp.NewServer(a.dispatcher,
			mcp.WithLogger(a.logger),
			mcp.WithServerInfo("deskclerk", Version))

		if serveStdio {
			a.logger.Info("mcp serving on stdio")
			return server.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		}

		httpServer := mcp.NewHTTPServer(server, mcp.HTTPConfig{
			Addr:       a.config.Address(),
			AuthSecret: a.config.Server.AuthSecret,
			WebSocket:  a.hub.HandleWebSocket,
		}, a.logger)

		if err := httpServer.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "serve JSON-RPC on stdin/stdout instead of HTTP")
}
