// UCP tool server - exposes checkout agent tools over MCP.
// Designed for Cloud Run deployment; one checkout session per process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ucp-agent/internal/catalog"
	"ucp-agent/internal/config"
	"ucp-agent/internal/discovery"
	"ucp-agent/internal/middleware"
	"ucp-agent/internal/session"
	"ucp-agent/internal/toolkit"
	"ucp-agent/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := initLogger()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("merchant_url", cfg.Merchant.MerchantURL),
		slog.String("agent_name", cfg.Merchant.AgentName),
		slog.String("environment", cfg.Environment),
		slog.Int("catalog_products", len(cfg.Catalog)),
	)

	// Assemble the commerce stack: transport → discovery + session → toolkit.
	tc := cfg.TransportConfig()
	tc.Logger = logger
	client, err := transport.New(tc)
	if err != nil {
		return fmt.Errorf("creating merchant client: %w", err)
	}

	negotiator := discovery.New(client, cfg.AgentCapabilities, logger)
	sess := session.New(client, cfg.Merchant.Currency, logger)
	tk := toolkit.New(sess, catalog.New(cfg.Catalog), negotiator, logger)
	defer tk.Close()

	// Fail fast on an incompatible merchant rather than on the first tool call.
	if err := tk.CheckMerchant(ctx); err != nil {
		return fmt.Errorf("merchant discovery: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", tk.NewMCPHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
