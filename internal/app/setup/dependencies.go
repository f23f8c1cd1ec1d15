package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/config"
	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/auth"
	publisher "github.com/LavaJover/storefront-attribution-service/internal/infrastructure/kafka"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/metrics"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/store"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/attribution"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config         *config.AttributionConfig
	Logger         *slog.Logger
	DB             *gorm.DB
	Redis          *redis.Client
	Store          domain.AttributionStore
	MemoryStore    *store.MemoryStore
	KafkaPublisher *publisher.DefaultKafkaPublisher
	ClickPublisher domain.ClickEventPublisher
	Users          domain.CurrentUserProvider
	Registry       *prometheus.Registry
	Metrics        *metrics.AttributionMetrics
	Repositories   *Repositories
}

type Repositories struct {
	ProductRepo   domain.ProductRepository
	AffiliateRepo domain.AffiliateRepository
	CampaignRepo  domain.CampaignRepository
	ClickRepo     domain.ClickRepository
}

func InitializeDependencies(ctx context.Context, cfg *config.AttributionConfig, logger *slog.Logger) (*Dependencies, error) {
	db := postgres.MustInitDB(cfg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Users:    auth.NewJWTUserProvider(cfg.Auth.JWTSecret, logger),
		Registry: registry,
		Metrics:  metrics.NewAttributionMetrics(registry),
		Repositories: &Repositories{
			ProductRepo:   repository.NewDefaultProductRepository(db),
			AffiliateRepo: repository.NewDefaultAffiliateRepository(db),
			CampaignRepo:  repository.NewDefaultCampaignRepository(db),
			ClickRepo:     repository.NewDefaultClickRepository(db),
		},
	}

	if err := initStore(ctx, deps); err != nil {
		return nil, fmt.Errorf("attribution store: %w", err)
	}

	if cfg.KafkaService.Enabled {
		kafkaPublisher, err := initClickPublisher(cfg)
		if err != nil {
			return nil, fmt.Errorf("click publisher: %w", err)
		}
		deps.KafkaPublisher = kafkaPublisher
		deps.ClickPublisher = publisher.NewClickPublisher(kafkaPublisher, cfg.KafkaService.Topic)
	}

	return deps, nil
}

func initStore(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config
	switch cfg.Attribution.StoreBackend {
	case "memory":
		deps.MemoryStore = store.NewMemoryStore()
		deps.Store = deps.MemoryStore
	default:
		client, err := store.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		deps.Redis = client
		deps.Store = store.NewRedisStore(client, retention(cfg))
	}
	deps.Logger.Info("attribution store ready", "backend", cfg.Attribution.StoreBackend)
	return nil
}

func initClickPublisher(cfg *config.AttributionConfig) (*publisher.DefaultKafkaPublisher, error) {
	return publisher.NewDefaultKafkaPublisher(publisher.KafkaConfig{
		Brokers:    []string{cfg.KafkaService.Broker()},
		Username:   cfg.KafkaService.Username,
		Password:   cfg.KafkaService.Password,
		Mechanism:  cfg.KafkaService.Mechanism,
		TLSEnabled: cfg.KafkaService.TLSEnabled,
	})
}

// retention keeps a visitor hash alive for the longest channel window.
func retention(cfg *config.AttributionConfig) time.Duration {
	longest := attribution.Days(cfg.Attribution.AffiliateTTLDays)
	if c := attribution.Days(cfg.Attribution.CampaignTTLDays); c > longest {
		longest = c
	}
	return longest
}

// Ready pings every backing service the request path depends on.
func (d *Dependencies) Ready(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (d *Dependencies) Close() error {
	var errs []error
	if d.KafkaPublisher != nil {
		errs = append(errs, d.KafkaPublisher.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
