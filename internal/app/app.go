package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/LZ26/esports-analytics/external/pandascore"
	"github.com/LZ26/esports-analytics/internal/config"
	"github.com/LZ26/esports-analytics/internal/domain/history"
	"github.com/LZ26/esports-analytics/internal/domain/match"
	"github.com/LZ26/esports-analytics/internal/domain/team"
	"github.com/LZ26/esports-analytics/internal/infrastructure/repository/memory"
	"github.com/LZ26/esports-analytics/internal/infrastructure/repository/postgres"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
	"github.com/LZ26/esports-analytics/internal/platform/resilience"
	"github.com/LZ26/esports-analytics/internal/usecase"
)

// Updater bundles the wired services behind the command line entrypoint.
type Updater struct {
	Update     *usecase.UpdateService
	Prediction *usecase.PredictionService
	Teams      team.Repository
	Matches    match.Repository

	db *sqlx.DB
}

// NewUpdater wires repositories, the provider client, and the services.
// Without DB_URL everything runs on in-memory stores, which is enough for
// one-shot local runs and tests.
func NewUpdater(cfg config.Config, logger *logging.Logger) (*Updater, error) {
	var (
		db          *sqlx.DB
		teamRepo    team.Repository
		historyRepo history.Repository
		matchRepo   match.Repository
	)

	if cfg.DBURL != "" {
		conn, err := sqlx.Connect("postgres", cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		db = conn
		teamRepo = postgres.NewTeamRepository(db)
		historyRepo = postgres.NewHistoryRepository(db)
		matchRepo = postgres.NewMatchRepository(db)
		logger.Info("using postgres repositories")
	} else {
		teamRepo = memory.NewTeamRepository()
		historyRepo = memory.NewHistoryRepository()
		matchRepo = memory.NewMatchRepository()
		logger.Warn("DB_URL is not set, using in-memory repositories")
	}

	provider := pandascore.NewClient(pandascore.ClientConfig{
		BaseURL:            cfg.PandaScoreBaseURL,
		Token:              cfg.PandaScoreToken,
		Timeout:            cfg.PandaScoreTimeout,
		MaxRetries:         cfg.PandaScoreMaxRetries,
		RateLimitMaxPauses: cfg.PandaScoreRateLimitMaxPauses,
		RateLimitRPS:       cfg.PandaScoreRateLimitRPS,
		HistoryCacheTTL:    cfg.HistoryCacheTTL,
		Logger:             logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.PandaScoreCircuitEnabled,
			FailureThreshold: cfg.PandaScoreCircuitFailures,
			OpenTimeout:      cfg.PandaScoreCircuitOpenFor,
			HalfOpenMaxReq:   cfg.PandaScoreCircuitHalfOpenReq,
		},
	})

	reconcile := usecase.NewReconcileService(teamRepo, historyRepo, matchRepo, logger)
	analytics := usecase.NewAnalyticsService(teamRepo, historyRepo, logger)
	update := usecase.NewUpdateService(provider, teamRepo, reconcile, analytics, usecase.UpdateServiceConfig{
		StaleAfter: cfg.AnalyticsStaleAfter,
		MaxWorkers: cfg.UpdateMaxWorkers,
	}, logger)
	prediction := usecase.NewPredictionService(teamRepo, logger)

	return &Updater{
		Update:     update,
		Prediction: prediction,
		Teams:      teamRepo,
		Matches:    matchRepo,
		db:         db,
	}, nil
}

func (u *Updater) Close() error {
	if u.db == nil {
		return nil
	}
	return u.db.Close()
}
