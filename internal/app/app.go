// Package app wires the sync service from configuration. Both the worker and the
// operator CLI build their dependency graph through New.
package app

import (
	"context"
	"strconv"
	"time"

	"fantasy_nhl/ingestion/internal/cache"
	"fantasy_nhl/ingestion/internal/client"
	"fantasy_nhl/ingestion/internal/config"
	"fantasy_nhl/ingestion/internal/events"
	"fantasy_nhl/ingestion/internal/query"
	"fantasy_nhl/ingestion/internal/reconcile"
	"fantasy_nhl/ingestion/internal/repository"
	"fantasy_nhl/ingestion/internal/scoring"
	"fantasy_nhl/ingestion/internal/sidechannel"

	"github.com/rs/zerolog/log"
)

// App holds the process-wide sync context
type App struct {
	Config   *config.Config
	DB       *repository.Database
	Client   *client.Client
	Cache    *cache.RedisCache     // nil when caching is disabled or Redis is unreachable
	Events   *events.NATSPublisher // nil when NATS_URL is empty or unreachable
	Resolver *scoring.Resolver
	Pipeline *reconcile.Pipeline
	Query    *query.Service
}

// New connects to storage and builds the pipeline and query service.
// Redis and NATS are optional: failures are logged and the service continues without them.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	a := &App{Config: cfg, DB: db}

	a.Client = client.NewClient(client.Config{
		BaseURL:   cfg.ESPNBaseURL,
		LeagueID:  cfg.LeagueID,
		Season:    cfg.LeagueYear,
		SWID:      cfg.ESPNSWID,
		ESPNS2:    cfg.ESPNS2,
		Timeout:   cfg.ESPNTimeout,
		RateLimit: cfg.ESPNRateLimit,
	})
	a.Resolver = scoring.NewResolver(a.Client)

	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			a.Cache = redisCache
			log.Info().Msg("Redis cache connected")
		}
	}

	if cfg.NATSURL != "" {
		publisher, err := events.NewNATSPublisher(events.Config{URL: cfg.NATSURL, Subject: cfg.NATSSubject})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to NATS - continuing without sync events")
		} else {
			a.Events = publisher
			log.Info().Str("subject", cfg.NATSSubject).Msg("NATS publisher connected")
		}
	}

	deps := reconcile.Deps{
		Roster:         a.Client,
		Scoring:        a.Resolver,
		Ownership:      sidechannel.NewOwnershipCollector(a.Client, cfg.OwnershipLimit, cfg.SideChannelTimeout),
		Injuries:       sidechannel.NewInjuryCollector(cfg.InjuryReportURL, cfg.SideChannelTimeout),
		Salaries:       sidechannel.NewSalaryCollector(cfg.SalaryTablePath),
		Store:          db,
		FreeAgentLimit: cfg.FreeAgentLimit,
	}
	if a.Cache != nil {
		deps.Cache = a.Cache
	}
	if a.Events != nil {
		deps.Publisher = a.Events
	}
	a.Pipeline = reconcile.NewPipeline(deps)

	a.Query = query.NewServiceFromDatabase(db, a.Resolver)
	if a.Cache != nil {
		a.Query.WithCache(a.Cache, cfg.CacheTTL())
	}

	return a, nil
}

// Close releases every connection held by the app
func (a *App) Close() {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection")
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	a.DB.Close()
}

// Health reports whether storage is reachable
func (a *App) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.DB.Health(ctx)
}
