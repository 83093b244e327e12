package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crosscli/go-crosscli/internal/server"
)

// Serve command flags
var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a local HTTP server over the session index",
	Long: `Start a local read-only HTTP server exposing the session index.

The server provides:
  - REST API under /api/v1 (adapters, sessions, context extraction)
  - Prometheus metrics at /metrics

All data stays on your machine - nothing is uploaded anywhere.

Use 'crosscli serve mcp' for an MCP (Model Context Protocol) server
over stdio, so assistants can query each other's history.

Examples:
  crosscli serve                  # HTTP server on default port 7465
  crosscli serve -p 8080          # custom port
  crosscli serve mcp              # MCP over stdio`,
	RunE: runServeHTTP,
}

var serveMcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	RunE:  runServeMCP,
}

func serverConfig() server.Config {
	config := server.DefaultConfig()
	if servePort != 0 {
		config.Port = servePort
	}
	if serveHost != "" {
		config.Host = serveHost
	}
	config.ScanTimeout = scanTimeout()
	return config
}

func runServeHTTP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewHTTPServer(newRegistry(), serverConfig())
	return srv.ListenAndServe(ctx)
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := serverConfig()
	config.Mode = server.ModeMCPStdio
	srv := server.NewMCPServer(newRegistry(), config)
	return srv.RunStdio(ctx)
}
