package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/LZ26/esports-analytics/internal/app"
	"github.com/LZ26/esports-analytics/internal/config"
	"github.com/LZ26/esports-analytics/internal/domain/match"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
	"github.com/LZ26/esports-analytics/internal/usecase"
)

func main() {
	teamID := flag.Int64("team-id", 0, "refresh a single team by its provider id")
	force := flag.Bool("force", false, "refresh every stored team regardless of staleness")
	workers := flag.Int("workers", 0, "worker pool size override for this run")
	game := flag.String("game", match.GameCSGO, "game to sync live matches for (csgo, dota2, valorant)")
	skipLive := flag.Bool("skip-live", false, "skip the live match sync and only refresh team analytics")
	flag.Parse()

	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	updater, err := app.NewUpdater(cfg, logger)
	if err != nil {
		logger.Error("build updater", "error", err)
		os.Exit(1)
	}
	defer func() { _ = updater.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*skipLive {
		live, err := updater.Update.SyncLiveMatches(ctx, *game)
		if err != nil {
			logger.ErrorContext(ctx, "live match sync failed", "game", *game, "error", err)
		} else {
			logger.InfoContext(ctx, "live match sync finished",
				"game", *game,
				"stored", live.Stored,
				"total", len(live.Records),
			)
		}
	}

	result, err := updater.Update.Run(ctx, usecase.UpdateInput{
		TeamExternalID: *teamID,
		Force:          *force,
		MaxWorkers:     *workers,
	})
	if err != nil {
		logger.ErrorContext(ctx, "update run failed", "error", err)
		os.Exit(1)
	}

	for _, row := range result.Teams {
		if row.Status == "success" {
			continue
		}
		logger.WarnContext(ctx, "team was not refreshed",
			"team_id", row.TeamExternalID,
			"name", row.Name,
			"status", row.Status,
			"message", row.Message,
		)
	}

	logger.InfoContext(ctx, "updater finished",
		"teams", result.TeamCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
	if result.FailedCount > 0 {
		os.Exit(1)
	}
}
