package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"ghproxy-hq/ghproxy/pkg/cache"
	"ghproxy-hq/ghproxy/pkg/config"
	"ghproxy-hq/ghproxy/pkg/limits/ratelimit"
	"ghproxy-hq/ghproxy/pkg/limits/stats"
	"ghproxy-hq/ghproxy/pkg/maintenance"
	"ghproxy-hq/ghproxy/pkg/proxy"
	"ghproxy-hq/ghproxy/pkg/proxy/handlers"
	"ghproxy-hq/ghproxy/pkg/routing"
	"ghproxy-hq/ghproxy/pkg/server"
	"ghproxy-hq/ghproxy/pkg/telemetry/health"
	"ghproxy-hq/ghproxy/pkg/telemetry/metrics"
)

// app holds the wired components of a running proxy.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	cache     *cache.Cache
	limiter   *ratelimit.FixedWindow
	flags     *routing.FlagStore
	collector *metrics.Collector
	checker   *health.Checker
	recorder  stats.Recorder
	scheduler *maintenance.Scheduler
	watcher   *config.Watcher
	server    *server.Server

	closeStats func() error
}

// serviceFlags extracts the routing switches from a configuration.
func serviceFlags(cfg *config.Config) routing.ServiceFlags {
	return routing.ServiceFlags{
		GitLabEnabled:    cfg.GitServices.GitLabEnabled,
		BitbucketEnabled: cfg.GitServices.BitbucketEnabled,
		JSDelivrEnabled:  cfg.JSDelivr.Enabled,
		MirrorHost:       cfg.JSDelivr.MirrorHost,
	}
}

// newApp builds every component from cfg. configPath is only used for hot
// reloading and may be empty when Server.WatchConfig is off.
func newApp(cfg *config.Config, configPath string, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:       cfg,
		logger:    logger,
		flags:     routing.NewFlagStore(serviceFlags(cfg)),
		collector: metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
	}

	a.cache = cache.New(cache.Config{
		Enabled:     cfg.Cache.Enabled,
		MaxCapacity: cfg.Cache.MaxCapacity,
		MaxMemory:   cfg.Cache.MaxMemory,
		TTL:         cfg.Cache.TimeToLive,
	}, cache.WithEvictionObserver(func(reason cache.EvictReason, _ int64) {
		a.collector.RecordCacheEviction(string(reason))
	}))
	a.collector.RegisterCacheGauges(
		func() float64 { return float64(a.cache.EntryCount()) },
		func() float64 { return float64(a.cache.MemoryUsage()) },
	)

	a.limiter = ratelimit.NewFixedWindow(ratelimit.Config{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	})
	a.collector.RegisterRateLimitGauge(func() float64 { return float64(a.limiter.Keys()) })

	recorder, closeStats, err := stats.NewFromConfig(&cfg.RateLimit.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit stats backend: %w", err)
	}
	a.recorder = recorder
	a.closeStats = closeStats

	executor := proxy.NewExecutor(proxy.ExecutorConfig{
		Timeout:           cfg.Upstream.Timeout,
		MaxRedirects:      cfg.Upstream.MaxRedirects,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	}, proxy.WithLogger(logger.With("component", "proxy.executor")))

	relay := handlers.NewRelayHandler(executor, a.flags,
		handlers.WithCache(a.cache),
		handlers.WithRateLimiter(a.limiter),
		handlers.WithMetrics(a.collector),
		handlers.WithStats(a.recorder),
		handlers.WithLogger(logger.With("component", "relay")),
	)

	a.checker = health.New(cfg.Telemetry.Health.CheckTimeout)
	a.checker.RegisterCheck(health.CheckConfig, health.ConfigCheck(func() bool {
		return config.GetConfig() != nil
	}))
	a.checker.RegisterCheck(health.CheckCache, health.IntegrityCheck(a.cache.Check))
	if p, ok := a.recorder.(health.Pinger); ok {
		a.checker.RegisterCheck(health.CheckStats, health.PingCheck(p))
	}

	opts := []server.Option{
		server.WithLogger(logger.With("component", "server")),
	}
	if cfg.Server.MaxConcurrent > 0 {
		opts = append(opts, server.WithConcurrencyLimiter(ratelimit.NewConcurrentLimiter(cfg.Server.MaxConcurrent)))
	}
	if hc := cfg.Telemetry.Health; hc.Enabled {
		h := a.checker.CreateHandlers(health.NewVersionInfo(Version, GitCommit, BuildDate))
		opts = append(opts,
			server.WithRoute(hc.LivenessPath, h.LivenessHandler),
			server.WithRoute(hc.ReadinessPath, h.ReadinessHandler),
			server.WithRoute(hc.VersionPath, h.VersionHandler),
		)
	}
	if mc := cfg.Telemetry.Metrics; mc.Enabled {
		opts = append(opts, server.WithRoute(mc.Path, a.collector.Handler()))
	}
	a.server = server.NewServer(&cfg.Server, relay, opts...)

	a.scheduler = maintenance.NewScheduler(logger.With("component", "maintenance"))
	if cfg.RateLimit.Enabled {
		idleAfter := cfg.RateLimit.IdleAfter
		err := a.scheduler.Add(maintenance.JobRateLimitSweep, cfg.RateLimit.SweepSchedule, func(context.Context) (int, error) {
			n := a.limiter.Sweep(idleAfter)
			a.collector.RecordRateLimitSweep(n)
			return n, nil
		})
		if err != nil {
			return nil, a.fail(err)
		}
	}
	if cfg.Cache.Enabled {
		err := a.scheduler.Add(maintenance.JobCachePurge, cfg.Cache.PurgeSchedule, func(context.Context) (int, error) {
			return a.cache.PurgeExpired(), nil
		})
		if err != nil {
			return nil, a.fail(err)
		}
	}

	if cfg.Server.WatchConfig {
		w, err := config.NewWatcher(configPath, 0, logger.With("component", "config.watcher"))
		if err != nil {
			return nil, a.fail(err)
		}
		a.watcher = w
	}

	return a, nil
}

// fail releases what newApp opened so far and returns err.
func (a *app) fail(err error) error {
	if cerr := a.closeStats(); cerr != nil {
		a.logger.Warn("failed to close rate limit stats backend", "error", cerr)
	}
	return err
}

// reload applies the hot-reloadable parts of a new configuration.
func (a *app) reload(cfg *config.Config) {
	flags := serviceFlags(cfg)
	if a.flags.Store(flags) {
		a.logger.Info("service flags updated",
			"gitlab", flags.GitLabEnabled,
			"bitbucket", flags.BitbucketEnabled,
			"jsdelivr", flags.JSDelivrEnabled,
			"rules", routing.RuleNames(flags),
		)
	}
}

// run serves until ctx is done, then shuts everything down.
func (a *app) run(ctx context.Context) error {
	a.logStartup()

	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Watch(ctx, a.reload); err != nil {
				a.logger.Error("config watcher failed", "error", err)
			}
		}()
	}

	return a.server.Start(ctx)
}

// close releases external resources. It is safe after a failed run.
func (a *app) close() error {
	var errs []error
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping config watcher: %w", err))
		}
	}
	if err := a.closeStats(); err != nil {
		errs = append(errs, fmt.Errorf("closing stats backend: %w", err))
	}
	return errors.Join(errs...)
}

func (a *app) logStartup() {
	cfg := a.cfg
	a.logger.Info("starting ghproxy",
		"version", Version,
		"address", cfg.Server.Address,
	)
	a.logger.Info("cache configured",
		"enabled", cfg.Cache.Enabled,
		"max_capacity", cfg.Cache.MaxCapacity,
		"max_memory", cfg.Cache.MaxMemory,
		"ttl", cfg.Cache.TimeToLive.String(),
	)
	a.logger.Info("rate limit configured",
		"enabled", cfg.RateLimit.Enabled,
		"requests_per_minute", cfg.RateLimit.RequestsPerMinute,
		"stats_backend", cfg.RateLimit.Stats.Backend,
	)
	flags := a.flags.Load()
	a.logger.Info("git services configured",
		"gitlab", flags.GitLabEnabled,
		"bitbucket", flags.BitbucketEnabled,
		"jsdelivr", flags.JSDelivrEnabled,
		"rules", routing.RuleNames(flags),
	)
}
