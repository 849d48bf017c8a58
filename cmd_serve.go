package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/server"
)

var (
	transport string
	port      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the algorithm tools over MCP",
	Long: `Starts an MCP server exposing list_algorithms, get_algorithm,
download_algorithm, delete_algorithm and run_algorithm.

Transports:
  stdio - JSON-RPC over stdin/stdout (default)
  http  - streamable HTTP on --port`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	serveCmd.Flags().StringVar(&port, "port", "8081", "HTTP port (only used with --transport http)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	srv := server.New(a.deps, version)

	switch transport {
	case "stdio":
		logger.Info("MCP server starting", zap.String("transport", "stdio"))
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case "http":
		addr := ":" + port
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		httpServer := &http.Server{
			Addr:        addr,
			Handler:     handler,
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 120 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		logger.Info("MCP server listening", zap.String("transport", "http"), zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (use stdio or http)", transport)
	}
}
