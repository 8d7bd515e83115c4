package di

import (
	"fmt"

	domrepo "HodlWatch/internal/domain/repository"
	"HodlWatch/internal/handler/api"
	internalrepo "HodlWatch/internal/repository"
	"HodlWatch/internal/scheduler"
	"HodlWatch/internal/service/sources"
	"HodlWatch/internal/services/analytics"
	"HodlWatch/internal/usecase"
	"HodlWatch/pkg/config"
	xhttp "HodlWatch/pkg/http"
	applogger "HodlWatch/pkg/logger"
	"HodlWatch/pkg/metrics"
	"HodlWatch/pkg/server"
	"HodlWatch/pkg/util"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideSeriesStore selects the configured storage backend.
func ProvideSeriesStore(cfg *config.Config, log *applogger.Logger) (domrepo.SeriesStore, error) {
	switch cfg.Storage.Backend {
	case "file":
		return internalrepo.NewFileSeriesStore(cfg.Storage.FilePath), nil
	case "redis":
		return newRedisStore(cfg)
	case "replicated":
		redis, err := newRedisStore(cfg)
		if err != nil {
			return nil, err
		}
		local := internalrepo.NewFileSeriesStore(cfg.Storage.FilePath)
		return internalrepo.NewReplicatedSeriesStore(redis, local, log), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newRedisStore(cfg *config.Config) (*internalrepo.RedisSeriesStore, error) {
	return internalrepo.NewRedisSeriesStore(
		internalrepo.WithAddr(cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
		internalrepo.WithAuth(cfg.Storage.Redis.Password, cfg.Storage.Redis.DB),
		internalrepo.WithPrefix(cfg.Storage.Redis.Prefix),
		internalrepo.WithBlobName(cfg.Storage.BlobName),
	)
}

// ProvidePublisher creates the cycle-event publisher, or a no-op one when
// eventing is disabled.
func ProvidePublisher(cfg *config.Config, log *applogger.Logger) (domrepo.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return internalrepo.NopPublisher{}, nil
	}
	return internalrepo.NewKafkaUpdatePublisher(cfg.Events.Brokers, cfg.Events.Topic, log)
}

// ProvideEngine creates the analytics engine.
func ProvideEngine() *analytics.Engine {
	return analytics.NewEngine()
}

// ProvideReconciler wires the series stores and candle sources.
func ProvideReconciler(
	cfg *config.Config,
	store domrepo.SeriesStore,
	log *applogger.Logger,
	m domrepo.Metrics,
) (*usecase.Reconciler, error) {
	inception, err := util.ParseDay(cfg.Sources.InceptionDate)
	if err != nil {
		return nil, err
	}
	bulk := sources.NewArchive(cfg.Sources.Archive.URL, cfg.Sources.Timeout, log)
	incremental := sources.NewCoinGecko(cfg.Sources.CoinGecko.BaseURL, cfg.Sources.Timeout, log)
	return usecase.NewReconciler(store, bulk, incremental, inception, log, m), nil
}

// ProvideSpotChain builds the spot fallback chain. CoinMarketCap joins the
// chain only when an API key is configured; the archive is always last.
func ProvideSpotChain(cfg *config.Config, log *applogger.Logger, m domrepo.Metrics) domrepo.SpotSource {
	chain := []domrepo.SpotSource{
		sources.NewCoinGecko(cfg.Sources.CoinGecko.BaseURL, cfg.Sources.Timeout, log),
	}
	if cfg.Sources.CoinMarketCap.APIKey != "" {
		chain = append(chain, sources.NewCoinMarketCap(
			cfg.Sources.CoinMarketCap.BaseURL, cfg.Sources.CoinMarketCap.APIKey, cfg.Sources.Timeout))
	}
	chain = append(chain, sources.NewArchive(cfg.Sources.Archive.URL, cfg.Sources.Timeout, log))
	return sources.NewSpotChain(log, m, chain...)
}

// ProvideUpdater creates the cycle orchestrator.
func ProvideUpdater(
	cfg *config.Config,
	rec *usecase.Reconciler,
	engine *analytics.Engine,
	spot domrepo.SpotSource,
	pub domrepo.EventPublisher,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.Updater {
	return usecase.NewUpdater(rec, engine, spot, pub, m, log, cfg.Refresh.ResultWindow)
}

// ProvideScheduler creates the background refresh scheduler.
func ProvideScheduler(cfg *config.Config, updater *usecase.Updater, log *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(updater, log, cfg.Refresh.CycleTimeout)
}

// ProvideHandler creates the dashboard HTTP handler.
func ProvideHandler(log *applogger.Logger, updater *usecase.Updater, engine *analytics.Engine) xhttp.Handler {
	return api.NewDashboardHandler(log, updater, engine)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	updater *usecase.Updater,
	sched *scheduler.Scheduler,
	handler xhttp.Handler,
) (*server.App, error) {
	return server.New(cfg, log, updater, sched, handler)
}
