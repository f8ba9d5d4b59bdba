package commands

import (
	"fmt"
	"time"

	"github.com/dipwatch/dipwatch/internal/alert"
	"github.com/dipwatch/dipwatch/internal/api/handlers"
	"github.com/dipwatch/dipwatch/internal/external/alphavantage"
	"github.com/dipwatch/dipwatch/internal/external/yahoo"
	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/internal/scheduler/jobs"
	"github.com/dipwatch/dipwatch/internal/selection"
	"github.com/dipwatch/dipwatch/internal/transport"
	"github.com/dipwatch/dipwatch/internal/user"
	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/database"
	"github.com/dipwatch/dipwatch/pkg/httputil"
	"github.com/dipwatch/dipwatch/pkg/logger"
	"github.com/dipwatch/dipwatch/pkg/redis"
)

// app holds every wired component; commands build one and pick what
// they need.
type app struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *database.DB
	Redis  *redis.Client

	Users     *user.Repository
	Snapshots *market.Repository
	Alerts    *alert.Repository

	Refresher *market.Refresher
	Finder    *selection.Finder
	Scanner   *jobs.Scanner
	Composer  *alert.Composer

	Corrections *jobs.CorrectionsJob
	Realtime    *jobs.RealtimeJob
	Daily       *jobs.DailyDigestJob
	Weekly      *jobs.WeeklyDigestJob
	Refresh     *jobs.RefreshJob
}

// newApp loads config and wires the full dependency graph.
func newApp() (*app, error) {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, continuing without cache")
		redisClient = redis.Disabled()
	}

	httpClient := httputil.New(cfg, log)

	provider, err := newProvider(cfg, redisClient, log)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Alerts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert timezone: %w", err)
	}

	users := user.NewRepository(db.Pool)
	snapshots := market.NewRepository(db.Pool)
	alerts := alert.NewRepository(db.Pool)

	cache := redis.NewCache(redisClient, "dipwatch")
	dedup := alert.NewDeduplicator(alerts, cache, loc, log)
	composer := alert.NewComposer()
	messenger := transport.New(cfg.Twilio, httpClient, log)

	refresher := market.NewRefresher(snapshots, provider, cfg.Market.RefreshBudget, log)
	screener := selection.NewScreener(selection.ScreenerConfig{MinWeeklyDrop: cfg.Alerts.MinWeeklyDrop})
	finder := selection.NewFinder(snapshots, screener, selection.FinderConfig{}, log)

	scanner := jobs.NewScanner(users, finder, dedup, alerts, messenger, composer, log)

	return &app{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		Redis:       redisClient,
		Users:       users,
		Snapshots:   snapshots,
		Alerts:      alerts,
		Refresher:   refresher,
		Finder:      finder,
		Scanner:     scanner,
		Composer:    composer,
		Corrections: jobs.NewCorrectionsJob(scanner, composer, cfg.Alerts.SignificantDrop),
		Realtime:    jobs.NewRealtimeJob(scanner, composer),
		Daily:       jobs.NewDailyDigestJob(scanner, composer),
		Weekly:      jobs.NewWeeklyDigestJob(scanner, composer),
		Refresh:     jobs.NewRefreshJob(refresher, cfg.Market.RefreshMaxAge, log),
	}, nil
}

func (a *app) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// bandRunners maps every band to its scan job.
func (a *app) bandRunners() map[user.Band]handlers.BandRunner {
	return map[user.Band]handlers.BandRunner{
		user.BandCorrections: a.Corrections,
		user.BandRealtime:    a.Realtime,
		user.BandDaily:       a.Daily,
		user.BandWeekly:      a.Weekly,
	}
}

// newProvider builds the market data client on its own HTTP client so
// the provider quota never throttles other outbound calls. The Redis
// limiter shares that quota across processes; when Redis is disabled it
// allows everything and the client's local limiter still applies.
func newProvider(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) (market.Provider, error) {
	limiter := redis.NewRateLimiter(redisClient, "dipwatch")

	switch cfg.Market.Provider {
	case "alphavantage":
		quota := redis.AlphaVantageRateLimit
		if cfg.AlphaVantage.RequestsPerMinute > 0 {
			quota.Limit = cfg.AlphaVantage.RequestsPerMinute
		}
		httpClient := httputil.New(cfg, log).WithRateLimiter(limiter, quota)
		return alphavantage.NewClient(cfg.AlphaVantage, httpClient, log), nil
	case "yahoo":
		httpClient := httputil.New(cfg, log).WithRateLimiter(limiter, redis.YahooRateLimit)
		return yahoo.NewClient(cfg.Yahoo, httpClient, log), nil
	default:
		return nil, fmt.Errorf("unknown market provider: %s", cfg.Market.Provider)
	}
}
