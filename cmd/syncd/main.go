// Command syncd runs the QuizPath sync engine as a long-lived daemon:
// it loads local content on startup and keeps the device store
// reconciled with the remote service in the background.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quizpath/syncengine/internal/api"
	"github.com/quizpath/syncengine/internal/config"
	"github.com/quizpath/syncengine/internal/db"
	"github.com/quizpath/syncengine/internal/logging"
	"github.com/quizpath/syncengine/internal/models"
	syncpkg "github.com/quizpath/syncengine/internal/sync"
	"github.com/quizpath/syncengine/internal/sync/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "syncd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.UserID == "" {
		return fmt.Errorf("QUIZPATH_USER_ID is required")
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		return err
	}

	repo := db.NewRepository(database.DB)
	defer repo.Close()

	remote := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.APIToken,
		Timeout: cfg.HTTPTimeout,
	}, log)

	clock := syncpkg.SystemClock()
	content := syncpkg.NewContentSyncer(repo, remote, clock, log)
	progress := syncpkg.NewProgressSyncer(repo, remote, clock, log)
	leaderboard := syncpkg.NewRefresher(repo, remote, clock, log, cfg.LeaderboardRefreshWindow)
	engine := syncpkg.NewEngine(content, progress, leaderboard, repo, clock, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := content.InitialLoad(ctx); err != nil {
		return err
	}

	sched := scheduler.New(engine, cfg.BackgroundSyncInterval, log)
	sched.RegisterUser(models.UUID(cfg.UserID))
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	log.Info("sync engine running",
		"data_dir", cfg.DataDir,
		"api_url", cfg.APIBaseURL,
		"sync_interval", cfg.BackgroundSyncInterval)

	// First sync right away rather than waiting out a full interval.
	if _, err := sched.TriggerNow(ctx, models.UUID(cfg.UserID)); err != nil {
		log.Warn("startup sync failed, will retry on schedule", "error", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	log.Info("shutting down", "signal", sig.String())
	return nil
}
