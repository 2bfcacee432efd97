// Package main запускает HTTP-сервер веб-сервиса 123Geleverd.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geleverd/geleverd-web/internal/backend"
	"github.com/geleverd/geleverd-web/internal/config"
	"github.com/geleverd/geleverd-web/internal/handler"
	"github.com/geleverd/geleverd-web/internal/logger"
	"github.com/geleverd/geleverd-web/internal/session"
)

const (
	sessionTTL      = 24 * time.Hour
	pruneInterval   = time.Hour
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger initialization error: %v", err)
	}
	defer zl.Sync()

	sugar := zl.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	var sessions session.Provider
	if cfg.DatabaseURI != "" {
		store, err := session.NewPostgresStore(cfg.DatabaseURI, cfg.SessionSecret, cfg.CookieSecure, zl)
		if err != nil {
			sugar.Fatalw("session store initialization error", "error", err.Error())
		}
		defer store.Close()

		// Удаление сессий старше суток
		g.Go(func() error {
			store.StartPruning(ctx, pruneInterval, sessionTTL)
			return nil
		})
		sessions = store
		sugar.Infow("using postgres session store")
	} else {
		sessions = session.NewCookieStore(cfg.SessionSecret, cfg.CookieSecure)
		sugar.Infow("using cookie session store")
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	h := handler.NewHandler(client, sessions, cfg.DisplayLocation(), zl)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	// Очистка состояния неактивных посетителей и сессий
	g.Go(func() error {
		h.Run(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting geleverd server", "addr", cfg.RunAddress, "backend", cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
