// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	goredis "github.com/redis/go-redis/v9"

	"github.com/grocerly/v1/internal/application/customize"
	appEnrichment "github.com/grocerly/v1/internal/application/enrichment"
	appPantry "github.com/grocerly/v1/internal/application/pantry"
	"github.com/grocerly/v1/internal/application/planner"
	appShopping "github.com/grocerly/v1/internal/application/shopping"
	"github.com/grocerly/v1/internal/domain/ingredient"
	"github.com/grocerly/v1/internal/infrastructure/config"
	enrichClient "github.com/grocerly/v1/internal/infrastructure/enrichment"
	gormRepo "github.com/grocerly/v1/internal/infrastructure/persistence/gorm"
	"github.com/grocerly/v1/internal/infrastructure/persistence/memory"
	redisRepo "github.com/grocerly/v1/internal/infrastructure/persistence/redis"
	"github.com/grocerly/v1/internal/infrastructure/persistence/sqlite"
	"github.com/grocerly/v1/internal/infrastructure/settings"
	"github.com/grocerly/v1/internal/ports/inbound"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/logger"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	EnrichmentModule,
	ServiceModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.IsDevelopment(),
		})
	},
)

// DatabaseModule provides the GORM database connection
var DatabaseModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		logLevel := gormLogger.Silent
		if cfg.IsDevelopment() {
			logLevel = gormLogger.Warn
		}

		db, err := sqlite.SetupDatabase(cfg.Database.Driver, cfg.GetDSN(), logLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to setup database: %w", err)
		}

		if cfg.Database.Seed {
			if err := sqlite.SeedDatabase(db); err != nil {
				log.Warn("Failed to seed database", zap.Error(err))
			}
		}

		log.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
		)
		return db, nil
	},
)

// CacheModule provides the enrichment response cache. Redis when
// enabled, in-process memory otherwise.
var CacheModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.CacheRepository {
		if cfg.Redis.Enabled {
			client := goredis.NewClient(&goredis.Options{
				Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.Database,
			})
			log.Info("Using Redis response cache",
				zap.String("host", cfg.Redis.Host),
			)
			return redisRepo.NewCacheRepository(client, log)
		}
		log.Info("Using in-memory response cache")
		return memory.NewCacheRepository()
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormRepo.NewShoppingListRepository,
	gormRepo.NewPantryRepository,
	gormRepo.NewPendingJobRepository,
	gormRepo.NewRecipeStore,
	settings.NewProvider,
)

// EnrichmentModule provides the external service client and the job
// coordinator built over it.
var EnrichmentModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.EnrichmentService {
		return enrichClient.NewClient(
			cfg.Enrichment.BaseURL,
			cfg.Enrichment.APIKey,
			cfg.Enrichment.RequestTimeout,
			log,
		)
	},
	func(
		jobs outbound.PendingJobRepository,
		svc outbound.EnrichmentService,
		cache outbound.CacheRepository,
		cfg *config.Config,
		log *zap.Logger,
	) *appEnrichment.Coordinator {
		return appEnrichment.NewCoordinator(jobs, svc, cache, appEnrichment.Config{
			PollInterval:       cfg.Enrichment.PollInterval,
			MaxBoundedAttempts: cfg.Enrichment.MaxBoundedAttempts,
			StaleAfter:         cfg.Enrichment.StaleAfter,
			CacheTTL:           cfg.Enrichment.CacheTTL,
		}, log)
	},
	func(c *appEnrichment.Coordinator) inbound.EnrichmentCoordinator {
		return c
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	// Ingredient matcher, swappable by feature flag
	func(cfg *config.Config) ingredient.Matcher {
		if cfg.Features.StrictMatching {
			return ingredient.TokenSubsetMatch
		}
		return ingredient.ContainsMatch
	},

	func(
		repo outbound.PantryRepository,
		recipes outbound.RecipeStore,
		match ingredient.Matcher,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.PantryService {
		return appPantry.NewService(repo, recipes, match, cfg.Pantry.LowStockFraction, log)
	},

	func(
		recipes outbound.RecipeStore,
		list outbound.ShoppingListRepository,
		pantryService inbound.PantryService,
		provider outbound.SettingsProvider,
		match ingredient.Matcher,
		log *zap.Logger,
	) inbound.PlannerService {
		return planner.NewService(recipes, list, pantryService, provider, match, log)
	},

	func(
		repo outbound.ShoppingListRepository,
		plannerService inbound.PlannerService,
		pantryService inbound.PantryService,
		coordinator inbound.EnrichmentCoordinator,
		log *zap.Logger,
	) inbound.ShoppingListService {
		return appShopping.NewService(repo, plannerService, pantryService, coordinator, log)
	},

	func(
		list outbound.ShoppingListRepository,
		recipes outbound.RecipeStore,
		coordinator inbound.EnrichmentCoordinator,
		match ingredient.Matcher,
		log *zap.Logger,
	) inbound.CustomizationService {
		return customize.NewService(list, recipes, coordinator, match, log)
	},
)

// LifecycleModule registers startup and shutdown hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks resumes interrupted enrichment jobs on start
// and drains pollers on stop.
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	coordinator *appEnrichment.Coordinator,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting planner core",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			resumed, err := coordinator.ResumePending(ctx)
			if err != nil {
				log.Warn("Failed to resume pending enrichment jobs", zap.Error(err))
				return nil
			}
			if len(resumed) > 0 {
				log.Info("Resumed pending enrichment jobs", zap.Int("count", len(resumed)))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down planner core")

			coordinator.Close()

			sqlDB, err := db.DB()
			if err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Error("Failed to close database connection", zap.Error(err))
				}
			}

			_ = log.Sync()
			return nil
		},
	})
}
