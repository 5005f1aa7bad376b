package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/campushub/internal/app/controllers"
	"github.com/yigit/campushub/internal/app/jobs"
	appMigrations "github.com/yigit/campushub/internal/app/migrations"
	appRepos "github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/app/repositories/memory"
	"github.com/yigit/campushub/internal/app/repositories/postgres"
	appRoutes "github.com/yigit/campushub/internal/app/routes"
	appServices "github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/config"
	"github.com/yigit/campushub/internal/db"
	appMiddleware "github.com/yigit/campushub/internal/middleware"
	pkgAuth "github.com/yigit/campushub/internal/pkg/auth"
	"github.com/yigit/campushub/internal/pkg/helpers"
	"github.com/yigit/campushub/internal/pkg/lock"
	"github.com/yigit/campushub/internal/pkg/logger"
	"github.com/yigit/campushub/internal/pkg/messaging"
	"github.com/yigit/campushub/internal/pkg/metrics"
	"github.com/yigit/campushub/internal/seed"
)

// DefaultConfigPath is used when no path is given on the command line
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Repos       *appRepos.Repositories
	Services    *appServices.Services
	Scheduler   *jobs.Scheduler
	Publisher   *messaging.Publisher
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	JWTService  *pkgAuth.JWTService
	Controllers appRoutes.Controllers

	AuthMiddleware *appMiddleware.AuthMiddleware

	closers []func() error
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.Config{
		Level:  cfg.Logging.Level,
		Format: strings.ToLower(cfg.Logging.Format),
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// BuildDependencies initializes the store, messaging, locks, services, the
// maintenance scheduler and the HTTP controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: lgr}

	repos, err := deps.setupStore(ctx)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Repos = repos

	if cfg.Store.Seed {
		if err := seed.CreateDefaultData(ctx, repos, lgr); err != nil {
			// Log the error but don't necessarily fail the startup
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.New(deps.Registry)

	if err := deps.setupMessaging(ctx); err != nil {
		deps.Close()
		return nil, err
	}

	deps.Services = appServices.NewServices(appServices.Config{
		Repos:           repos,
		Logger:          logger.Component("services"),
		Notifier:        deps.Publisher,
		Metrics:         deps.Metrics,
		DefaultCapacity: cfg.Events.DefaultCapacity,
	})

	deps.Scheduler, err = jobs.NewScheduler(jobs.Config{
		ReconcileSchedule: cfg.Scheduler.ReconcileSchedule,
		ExpireSchedule:    cfg.Scheduler.ExpireSchedule,
		LockTTL:           cfg.Scheduler.LockTTL,
		RunTimeout:        cfg.Scheduler.RunTimeout,
	}, deps.Services.Events, deps.Services.Reservations, deps.setupLocker(ctx), deps.Metrics, logger.Component("scheduler"))
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to setup scheduler: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository)

	svc := deps.Services
	deps.Controllers = appRoutes.Controllers{
		College:     appControllers.NewCollegeController(svc.Directory),
		Community:   appControllers.NewCommunityController(svc.Directory, svc.Registry),
		User:        appControllers.NewUserController(svc.Registry),
		Event:       appControllers.NewEventController(svc.Events),
		StudySpace:  appControllers.NewStudySpaceController(svc.Reservations),
		Maintenance: appControllers.NewMaintenanceController(deps.Scheduler),
	}

	return deps, nil
}

// setupStore opens the configured store. Postgres is migrated before use.
func (d *Dependencies) setupStore(ctx context.Context) (*appRepos.Repositories, error) {
	cfg := d.Config
	if cfg.Store.Driver == config.StoreMemory {
		d.Logger.Warn().Msg("Using in-memory store, data is lost on restart")
		return memory.NewRepositories(), nil
	}

	d.Logger.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		d.Logger.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	d.closers = append(d.closers, func() error {
		database.Close()
		return nil
	})
	d.Logger.Info().Msg("Database connection successfully established.")

	if _, err := os.Stat(cfg.Store.MigrationsDir); err != nil {
		return nil, fmt.Errorf("migrations directory not found at %s: %w", cfg.Store.MigrationsDir, err)
	}
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(ctx, cfg.Store.MigrationsDir); err != nil {
		d.Logger.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	d.Logger.Info().Msg("Database migrations successfully applied.")

	return postgres.NewRepositories(database), nil
}

// setupMessaging creates the notification publisher. With the in-process
// channel transport, notifications are consumed into the log.
func (d *Dependencies) setupMessaging(ctx context.Context) error {
	msgLogger := logger.Component("messaging")
	pub, ch, err := messaging.NewPublisher(messaging.Config{
		Driver:  d.Config.Messaging.Driver,
		Brokers: d.Config.Messaging.Brokers,
	}, msgLogger)
	if err != nil {
		return fmt.Errorf("failed to setup messaging: %w", err)
	}
	d.Publisher = pub
	d.closers = append(d.closers, pub.Close)

	if ch != nil {
		for _, topic := range []string{messaging.TopicEventLifecycle, messaging.TopicMaintenance} {
			if _, err := messaging.Consume(ctx, ch, topic, messaging.LogHandler(topic, msgLogger), msgLogger); err != nil {
				return err
			}
		}
	}
	return nil
}

// setupLocker uses Redis when an address is configured, else a process-local lock
func (d *Dependencies) setupLocker(ctx context.Context) lock.Locker {
	cfg := d.Config.Redis
	if cfg.Addr == "" {
		d.Logger.Info().Msg("Redis not configured, maintenance locks are process-local")
		return lock.NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	d.closers = append(d.closers, client.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// locks are retried on each run; a Redis outage only skips maintenance passes
		d.Logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis ping failed")
	}
	return lock.NewRedisLocker(client, cfg.LockPrefix)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestID(), appMiddleware.RequestLogger())

	appRoutes.SetupOperational(router, deps.Registry)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}

// Close releases everything BuildDependencies opened, in reverse order
func (d *Dependencies) Close() error {
	var errs error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = errors.Join(errs, d.closers[i]())
	}
	d.closers = nil
	return errs
}
