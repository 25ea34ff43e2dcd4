package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/texcv/internal/api"
	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/config"
	"github.com/kalambet/texcv/internal/render"
	"github.com/kalambet/texcv/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the texcv HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the texcv MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show texcv server and backend status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}
		showStatus(cmd.Context(), cfg, newAPIClient(cfg))
		return nil
	},
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func newGateway(cfg config.Config) *render.Gateway {
	client := backend.NewClient(cfg.Backend.BaseURL, cfg.BackendTimeout())
	return render.NewGateway(client).WithLogger(slog.Default())
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "texcv version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := newGateway(cfg)
	sessions := session.NewManager(gw, session.Options{
		HealthInterval: cfg.HealthInterval(),
		HealthTimeout:  cfg.HealthTimeout(),
		IdleTimeout:    cfg.SessionIdleTimeout(),
		Logger:         slog.Default(),
	})

	if cfg.Server.Token == "" {
		slog.Warn("no server token configured, session routes are unauthenticated")
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewHandler(api.Deps{
			Renderer: gw,
			Sessions: sessions,
			Token:    cfg.Server.Token,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sessions.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("texcv listening", "addr", cfg.Addr(), "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Renderer: newGateway(cfg),
		Version:  version,
	})
	slog.Info("MCP server started (stdio transport)")

	err = server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

func showStatus(ctx context.Context, cfg config.Config, client *apiClient) {
	printStatus("Server", "%s", cfg.Addr())
	printStatus("Backend", "%s", cfg.Backend.BaseURL)

	var report map[string]any
	resp, err := client.get(ctx, "/api/health")
	if err != nil {
		printStatus("Server state", "stopped")
		return
	}
	if err := decodeJSON(resp, &report); err != nil {
		printStatus("Server state", "running")
		printStatus("Backend state", "unhealthy (%v)", err)
	} else {
		printStatus("Server state", "running")
		printStatus("Backend state", "%v", report["status"])
	}

	// Round-trip a throwaway session to confirm the token is accepted.
	resp, err = client.post(ctx, "/sessions?template=blank")
	if err != nil {
		printStatus("Sessions", "error (%v)", err)
		return
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		printStatus("Sessions", "token rejected")
		return
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(resp, &created); err != nil {
		printStatus("Sessions", "error (%v)", err)
		return
	}
	if resp, err := client.delete(ctx, "/sessions/"+created.ID); err == nil {
		resp.Body.Close()
	}
	auth := "open"
	if cfg.Server.Token != "" {
		auth = "token accepted"
	}
	printStatus("Sessions", "ok (%s)", auth)
}
