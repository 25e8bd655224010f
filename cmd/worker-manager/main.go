// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vendor-matching/internal/api"
	commonaws "vendor-matching/internal/common/aws"
	"vendor-matching/internal/common/camunda"
	"vendor-matching/internal/common/config"
	"vendor-matching/internal/common/database"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/common/observability"
	"vendor-matching/internal/ledger"
	"vendor-matching/internal/search"
	"vendor-matching/internal/vendorquery"

	fvc "vendor-matching/internal/workers/procurement/fetch-vendor-candidates"
	mrd "vendor-matching/internal/workers/procurement/match-rfq-demands"
	rvs "vendor-matching/internal/workers/procurement/record-vendor-selection"
	rvp "vendor-matching/internal/workers/procurement/resolve-vendor-preferences"
	svc "vendor-matching/internal/workers/procurement/score-vendor-candidates"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// backends holds the connections opened for the configured source and ledger.
type backends struct {
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
}

func (b *backends) Close() {
	if b.pg != nil {
		b.pg.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting vendor matching service...",
		zap.String("source", cfg.VendorService.Source),
		zap.String("ledger", cfg.Ledger.Backend),
		zap.Bool("camunda", cfg.Camunda.Enabled),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	infra := connectBackends(ctx, cfg, zapLog)
	defer infra.Close()

	// --- Vendor query pipeline ---
	var source vendorquery.Source
	switch cfg.VendorService.Source {
	case config.SourceElasticsearch:
		source = vendorquery.NewElasticsearchSource(infra.es.Client, infra.es.Index, log)
	default:
		source = vendorquery.NewHTTPSource(vendorquery.HTTPSourceConfig{
			BaseURL: cfg.VendorService.BaseURL,
			APIKey:  cfg.VendorService.APIKey,
			Timeout: config.GetDuration(cfg.VendorService.Timeout),
		}, log)
	}
	if cfg.Matching.CacheTTL > 0 {
		source = vendorquery.NewCachedSource(source, infra.redis.Client, cfg.Matching.CacheDuration(), log)
		zapLog.Info("vendor candidate cache enabled", zap.Duration("ttl", cfg.Matching.CacheDuration()))
	}

	queryClient := vendorquery.NewClient(source, config.GetDuration(cfg.VendorService.Timeout), log)
	searcher := search.NewSearcher(queryClient, log,
		search.WithDefaultTop(cfg.VendorService.DefaultTop),
		search.WithObservability(obs),
	)

	// --- Selection ledger ---
	var store ledger.Store
	switch cfg.Ledger.Backend {
	case config.LedgerPostgres:
		store = ledger.NewPostgresStore(infra.pg.DB)
	case config.LedgerRedis:
		store = ledger.NewRedisStore(infra.redis.Client, cfg.Ledger.KeyPrefix)
	default:
		store = ledger.NewMemoryStore()
	}

	var ledgerOpts []ledger.Option
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(ledger.NewSNSPublisher(snsClient, cfg.Notifications.SNS.TopicARN)))
		zapLog.Info("selection events enabled", zap.String("topic", cfg.Notifications.SNS.TopicARN))
	}
	selections := ledger.New(store, log, ledgerOpts...)

	// --- Camunda workers ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		workers = startWorkers(cfg, zeebe, queryClient, searcher, selections, log, zapLog)
		zapLog.Info("workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	checks := readinessChecks(infra, zeebe)
	server := api.NewServer(cfg.API.Address, api.RouterConfig{
		MatchHandler:     api.NewMatchHandler(searcher, cfg.Matching.BatchConcurrency, log),
		SelectionHandler: api.NewSelectionHandler(selections, log),
		HealthHandler:    api.NewHealthHandler(checks...),
		CORSOrigins:      cfg.API.CORSOrigins,
		Logger:           log,
	})
	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.API.Address))
		if err := server.Run(); err != nil {
			zapLog.Error("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping API server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Vendor matching service stopped gracefully")
}

// connectBackends opens only the stores the configuration asks for.
func connectBackends(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) *backends {
	b := &backends{}

	if cfg.Ledger.Backend == config.LedgerPostgres {
		err := retryWithBackoff(func() error {
			var err error
			b.pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return b.pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		if err := b.pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("postgres schema setup failed", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.Ledger.Backend == config.LedgerRedis || cfg.Matching.CacheTTL > 0 {
		err := retryWithBackoff(func() error {
			var err error
			b.redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return b.redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		zapLog.Info("Redis connected successfully")
	}

	if cfg.VendorService.Source == config.SourceElasticsearch {
		err := retryWithBackoff(func() error {
			var err error
			b.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return b.es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := b.es.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	return b
}

type registration struct {
	taskType string
	enabled  bool
	opts     camunda.WorkerOptions
	build    func() (camunda.JobHandler, error)
}

func startWorkers(
	cfg *config.Config,
	zeebe *camunda.Client,
	fetcher *vendorquery.Client,
	searcher *search.Searcher,
	selections *ledger.Ledger,
	log logger.Logger,
	zapLog *zap.Logger,
) []*camunda.CamundaWorker {
	resolveCfg := rvp.ConfigFromApp(cfg)
	fetchCfg := fvc.ConfigFromApp(cfg)
	scoreCfg := svc.ConfigFromApp(cfg)
	recordCfg := rvs.ConfigFromApp(cfg)
	matchCfg := mrd.ConfigFromApp(cfg)

	registrations := []registration{
		{
			taskType: rvp.TaskType,
			enabled:  resolveCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: resolveCfg.MaxJobsActive, Timeout: resolveCfg.Timeout},
			build:    func() (camunda.JobHandler, error) { return rvp.NewHandler(resolveCfg, log) },
		},
		{
			taskType: fvc.TaskType,
			enabled:  fetchCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: fetchCfg.MaxJobsActive, Timeout: fetchCfg.Timeout},
			build:    func() (camunda.JobHandler, error) { return fvc.NewHandler(fetchCfg, fetcher, log) },
		},
		{
			taskType: svc.TaskType,
			enabled:  scoreCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: scoreCfg.MaxJobsActive, Timeout: scoreCfg.Timeout},
			build:    func() (camunda.JobHandler, error) { return svc.NewHandler(scoreCfg, log) },
		},
		{
			taskType: rvs.TaskType,
			enabled:  recordCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: recordCfg.MaxJobsActive, Timeout: recordCfg.Timeout},
			build:    func() (camunda.JobHandler, error) { return rvs.NewHandler(recordCfg, selections, log) },
		},
		{
			taskType: mrd.TaskType,
			enabled:  matchCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: matchCfg.MaxJobsActive, Timeout: matchCfg.Timeout},
			build:    func() (camunda.JobHandler, error) { return mrd.NewHandler(matchCfg, searcher, log) },
		},
	}

	var started []*camunda.CamundaWorker
	for _, r := range registrations {
		if !r.enabled || !config.IsWorkerEnabled(cfg, r.taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", r.taskType))
			continue
		}

		handler, err := r.build()
		if err != nil {
			zapLog.Fatal("failed to create handler", zap.String("taskType", r.taskType), zap.Error(err))
		}

		r.opts.TaskType = r.taskType
		started = append(started, camunda.NewWorker(zeebe.GetClient(), r.opts, handler, log))
	}
	return started
}

func readinessChecks(b *backends, zeebe *camunda.Client) []api.Check {
	var checks []api.Check
	if b.pg != nil {
		checks = append(checks, api.Check{Name: "postgres", Fn: b.pg.Ping})
	}
	if b.redis != nil {
		checks = append(checks, api.Check{Name: "redis", Fn: b.redis.Ping})
	}
	if b.es != nil {
		checks = append(checks, api.Check{Name: "elasticsearch", Fn: b.es.Ping})
	}
	if zeebe != nil {
		checks = append(checks, api.Check{Name: "zeebe", Fn: zeebe.HealthCheck})
	}
	return checks
}
