package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/shoplist/internal/database"
	"github.com/dukerupert/shoplist/internal/parser"
	"github.com/dukerupert/shoplist/internal/server"
)

const sweepInterval = 10 * time.Minute

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the list server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srvOpts := server.Options{
		StreamSecret:  []byte(cfg.Server.StreamSecret),
		InviteTTL:     cfg.Invite.TTL(),
		WebRecipes:    cfg.Recipe.WebLookup,
		RecipeTimeout: cfg.Recipe.Timeout(),
	}
	if cfg.Parser.GeminiAPIKey != "" {
		gemini, err := parser.NewGemini(ctx, cfg.Parser.GeminiAPIKey, cfg.Parser.GeminiModel, logger.With("component", "gemini"))
		if err != nil {
			return err
		}
		defer gemini.Close()
		srvOpts.ModelParser = gemini
	}
	if cfg.Server.StreamSecret == "" {
		logger.Warn("server.stream_secret is empty, push channels are disabled")
	}

	srv := server.New(db, srvOpts, logger)
	go sweep(ctx, srv, logger.With("component", "sweeper"))

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shoplist listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// sweep removes expired sessions, invite codes and idempotency records until ctx ends.
func sweep(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()
		if n, err := srv.SessionStore().DeleteExpired(ctx, now); err != nil {
			logger.Error("sweep sessions", "error", err)
		} else if n > 0 {
			logger.Debug("expired sessions removed", "count", n)
		}
		if n, err := srv.Invites().Sweep(ctx); err != nil {
			logger.Error("sweep invites", "error", err)
		} else if n > 0 {
			logger.Debug("expired invite codes removed", "count", n)
		}
		if n, err := srv.IdempotencyStore().DeleteExpired(ctx, now); err != nil {
			logger.Error("sweep idempotency keys", "error", err)
		} else if n > 0 {
			logger.Debug("expired idempotency keys removed", "count", n)
		}
		srv.RateLimiter().Cleanup()
	}
}
