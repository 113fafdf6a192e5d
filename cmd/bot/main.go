package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/config"
	"github.com/AdamBeresnev/op-tourney-bot/internal/db"
	"github.com/AdamBeresnev/op-tourney-bot/internal/notify"
	"github.com/AdamBeresnev/op-tourney-bot/internal/scheduler"
	"github.com/AdamBeresnev/op-tourney-bot/internal/service"
	"github.com/AdamBeresnev/op-tourney-bot/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore.Close()

	notifier, err := openNotifier(cfg)
	if err != nil {
		slog.Error("failed to set up notifications", "error", err)
		os.Exit(1)
	}
	if closer, ok := notifier.(io.Closer); ok {
		defer closer.Close()
	}

	svc := service.NewTournamentService(repo, notifier)

	sched, err := scheduler.New(svc)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(svc, cfg.AdapterToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("adapter API listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	if err := sched.Stop(); err != nil {
		slog.Error("failed to stop scheduler", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (service.Repository, io.Closer, error) {
	if cfg.StoreBackend == config.BackendRedis {
		rs, err := store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs, nil
	}

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, nil, err
	}
	return store.NewTournamentStore(database), database, nil
}

func openNotifier(cfg *config.Config) (notify.Notifier, error) {
	if cfg.NATSURL == "" {
		slog.Warn("NATS_URL not set, notifications will only be logged")
		return notify.LogNotifier{}, nil
	}
	return notify.NewNATSNotifier(cfg.NATSURL, cfg.NATSSubject)
}
