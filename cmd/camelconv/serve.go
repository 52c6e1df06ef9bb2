package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/i2y/camelconv/internal/adapter/inbound/httpapi"
	"github.com/i2y/camelconv/internal/adapter/inbound/mcptools"
	"github.com/i2y/camelconv/internal/adapter/outbound/memrepo"
)

const (
	transportStdio = "stdio"
	transportSSE   = "sse"
)

func serveTransport(cmd *cobra.Command) string {
	t, err := cmd.Flags().GetString("transport")
	if err != nil {
		return transportSSE
	}
	return t
}

func (a *app) newServeCmd() *cobra.Command {
	var (
		transport  string
		listenAddr = a.cfg.ListenAddr
		httpAddr   = a.cfg.HTTPAddr
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversions as MCP tools (and over HTTP in SSE mode)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch transport {
			case transportStdio:
				return a.serveStdio(cmd.Context())
			case transportSSE:
				return a.serveSSE(cmd.Context(), listenAddr, httpAddr)
			}
			return fmt.Errorf("invalid transport mode %q (want %s or %s)", transport, transportStdio, transportSSE)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&transport, "transport", transportSSE, "transport mode: sse or stdio")
	fs.StringVar(&listenAddr, "listen", listenAddr, "MCP SSE listen address")
	fs.StringVar(&httpAddr, "http-addr", httpAddr, "HTTP conversion API listen address")
	return cmd
}

// newMCPServer registers every conversion tool. Converted artifacts are kept
// in repo.
func (a *app) newMCPServer(repo *memrepo.ArtifactRepository) (*mcpGoServer.MCPServer, *httpapi.Handlers, error) {
	uc, err := a.newConvertUseCase(repo)
	if err != nil {
		return nil, nil, err
	}

	mcpSrv := mcpGoServer.NewMCPServer(serviceName, serviceVersion)
	mcptools.NewTools(uc, a.logger).Register(mcpSrv)
	a.logger.Info("MCP server (mark3labs/mcp-go) initialized.")

	return mcpSrv, httpapi.NewHandlers(uc, repo, a.logger), nil
}

func (a *app) serveStdio(ctx context.Context) error {
	mcpSrv, _, err := a.newMCPServer(memrepo.NewArtifactRepository(a.logger))
	if err != nil {
		return err
	}

	a.logger.Info("Starting in STDIO mode")
	stdioServer := mcpGoServer.NewStdioServer(mcpSrv)
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("STDIO server error", slog.Any("error", err))
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func (a *app) serveSSE(ctx context.Context, listenAddr, httpAddr string) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	mcpSrv, handlers, err := a.newMCPServer(memrepo.NewArtifactRepository(a.logger))
	if err != nil {
		return err
	}

	a.logger.Info("Starting in SSE mode")
	sseServer := mcpGoServer.NewSSEServer(mcpSrv, mcpGoServer.WithBaseURL("http://"+listenAddr))

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP conversion API starting.", slog.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP conversion API failed.", slog.Any("error", err))
			errCh <- fmt.Errorf("http server: %w", err)
			stop()
		}
	}()
	go func() {
		a.logger.Info("MCP SSE server starting.", slog.String("address", listenAddr))
		if err := sseServer.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("MCP SSE server failed.", slog.Any("error", err))
			errCh <- fmt.Errorf("sse server: %w", err)
			stop()
		}
	}()

	<-ctx.Done()

	a.logger.Info("Shutting down servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP conversion API graceful shutdown failed.", slog.Any("error", err))
	}
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("MCP SSE server graceful shutdown failed.", slog.Any("error", err))
	}
	a.logger.Info("Servers shut down.")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
