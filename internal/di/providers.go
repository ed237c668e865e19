package di

import (
	"context"
	"fmt"
	"time"

	domainrepo "MacroSync/internal/domain/repository"
	"MacroSync/internal/handler/api"
	"MacroSync/internal/repository"
	"MacroSync/internal/source/ecos"
	"MacroSync/internal/source/fred"
	"MacroSync/internal/source/ofr"
	"MacroSync/internal/source/sdmx"
	"MacroSync/internal/usecase"
	"MacroSync/pkg/cache"
	"MacroSync/pkg/clickhouse"
	"MacroSync/pkg/config"
	apphttp "MacroSync/pkg/http"
	"MacroSync/pkg/kafka"
	"MacroSync/pkg/logger"
	"MacroSync/pkg/metrics"
	"MacroSync/pkg/server"
)

// ProvideProducer creates the Kafka producer, or nil when no broker is
// configured.
func ProvideProducer(cfg *config.Config) (*kafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	return kafka.NewProducer(
		kafka.WithBrokers(cfg.Kafka.Brokers),
		kafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		kafka.WithCompression(cfg.Kafka.Compression),
	)
}

// ProvideLogger builds the logger and, when a producer exists, attaches
// the aggregating collector that ships warn/error logs to the broker.
func ProvideLogger(cfg *config.Config, producer *kafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}
	if producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideEventPublisher wraps the producer for run reports; nil when
// the broker is disabled.
func ProvideEventPublisher(cfg *config.Config, producer *kafka.Producer) domainrepo.EventPublisher {
	if producer == nil {
		return nil
	}
	return repository.NewKafkaEventPublisher(producer, cfg.Kafka.RunTopic)
}

// ProvideClickHouse opens the ClickHouse connection pool and makes sure
// the configured database exists.
func ProvideClickHouse(cfg *config.Config) (*clickhouse.Client, error) {
	client, err := clickhouse.NewClient(
		clickhouse.WithHost(cfg.ClickHouse.Host),
		clickhouse.WithPort(cfg.ClickHouse.Port),
		clickhouse.WithDatabase(cfg.ClickHouse.Database),
		clickhouse.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		clickhouse.WithHTTP(cfg.ClickHouse.UseHTTP),
		clickhouse.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.ClickHouse.Database),
	}); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ProvideTableStore builds the destination store.
func ProvideTableStore(client *clickhouse.Client, cfg *config.Config, log *logger.Logger) domainrepo.TableStore {
	return repository.NewClickHouseTableStore(client, cfg.ClickHouse.Database, log)
}

// ProvideCache selects the cache backend for code resolution and the
// run lock.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
	}
	return cache.NewMemoryCache(), nil
}

// ProvideMetrics registers the Prometheus recorder.
func ProvideMetrics() domainrepo.Metrics {
	return metrics.NewRecorder()
}

// ProvideAdapters builds one source adapter per configured provider.
func ProvideAdapters(cfg *config.Config, log *logger.Logger) (map[string]domainrepo.SourceAdapter, error) {
	adapters := make(map[string]domainrepo.SourceAdapter, len(cfg.Providers))
	for name, p := range cfg.Providers {
		hc := apphttp.NewClient(apphttp.WithTimeout(p.Timeout))
		switch p.Kind {
		case "fred":
			adapters[name] = fred.New(name, p.BaseURL, p.APIKey(), p.Freq(), hc, log)
		case "ofr":
			adapters[name] = ofr.New(name, p.BaseURL, p.Freq(), hc, log)
		case "sdmx":
			adapters[name] = sdmx.New(name, p.BaseURL, p.Freq(), hc, log)
		case "ecos":
			adapters[name] = ecos.New(name, p.BaseURL, p.APIKey(), p.Freq(), hc, log)
		default:
			return nil, fmt.Errorf("provider %s: unknown kind %q", name, p.Kind)
		}
	}
	return adapters, nil
}

// ProvideSyncer wires the orchestrator.
func ProvideSyncer(
	cfg *config.Config,
	adapters map[string]domainrepo.SourceAdapter,
	store domainrepo.TableStore,
	c cache.Service,
	m domainrepo.Metrics,
	events domainrepo.EventPublisher,
	log *logger.Logger,
) *usecase.Syncer {
	return usecase.NewSyncer(cfg, adapters, store, c, m, events, log)
}

// ProvideHandler builds the API handler.
func ProvideHandler(syncer *usecase.Syncer, store domainrepo.TableStore, log *logger.Logger) *api.Handler {
	return api.NewHandler(syncer, store, log)
}

// ProvideServer builds the HTTP server with the handler's routes.
func ProvideServer(cfg *config.Config, handler apphttp.Handler, log *logger.Logger) *apphttp.Server {
	return apphttp.NewServer(handler,
		apphttp.WithPort(cfg.Server.Port),
		apphttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		apphttp.WithRequestMetrics(log, time.Second),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	srv *apphttp.Server,
	syncer *usecase.Syncer,
	store domainrepo.TableStore,
	events domainrepo.EventPublisher,
) *server.App {
	return server.NewApp(cfg, log, srv, syncer, store, events)
}
