package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/taskmanager-api/internal/api"
	"github.com/phrazzld/taskmanager-api/internal/config"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/events"
	"github.com/phrazzld/taskmanager-api/internal/platform/cache"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/platform/postgres"
	"github.com/phrazzld/taskmanager-api/internal/platform/sqlite"
	"github.com/phrazzld/taskmanager-api/internal/redact"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"gorm.io/gorm"
)

// cacheKeyPrefix namespaces every Redis key written by this service.
const cacheKeyPrefix = "taskmanager:"

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Exactly one of sqlDB and gormDB is set, depending on the driver.
	sqlDB  *sql.DB
	gormDB *gorm.DB
	cache  *cache.Cache

	taskStore store.TaskStore
	userStore store.UserStore

	taskService service.TaskService
	userService service.UserService
	jwtService  auth.JWTService

	handler http.Handler
}

// initializeApp loads configuration from dir and sets up structured logging.
func initializeApp(dir string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("cache_enabled", cfg.Cache.Enabled()))
	return cfg, log, nil
}

// newApplication opens the stores and wires services and the router.
// On error every resource opened so far is released.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (app *application, err error) {
	if log == nil {
		log = slog.Default()
	}
	app = &application{config: cfg, logger: log}
	defer func() {
		if err != nil {
			app.cleanup()
			app = nil
		}
	}()

	if err = app.openStores(ctx); err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled() {
		app.cache, err = cache.Connect(ctx, cfg.Cache.RedisAddr, cacheKeyPrefix, cfg.Cache.TTL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.taskStore = cache.NewTaskStore(app.taskStore, app.cache, log)
		log.Info("task cache enabled",
			slog.String("redis_addr", cfg.Cache.RedisAddr),
			slog.Duration("ttl", cfg.Cache.TTL()))
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(events.NewAuditLogHandler(log))

	rules := domain.DefaultTaskRules()
	rules.TitleMaxLength = cfg.Task.TitleMaxLength

	app.taskService, err = service.NewTaskService(app.taskStore, log,
		service.WithEventEmitter(emitter),
		service.WithTaskRules(rules))
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	app.userService, err = service.NewUserService(app.userStore, hasher, auth.NewBcryptVerifier(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.handler = api.NewRouter(api.RouterDeps{
		TaskService: app.taskService,
		UserService: app.userService,
		JWTService:  app.jwtService,
		AuthConfig:  cfg.Auth,
		Logger:      log,
	})

	log.Info("application initialized")
	return app, nil
}

// openStores connects to the configured database and builds the stores.
func (app *application) openStores(ctx context.Context) error {
	cfg := app.config.Database
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg.URL)
		if err != nil {
			return err
		}
		app.sqlDB = db
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, app.logger); err != nil {
			return err
		}
		app.taskStore = postgres.NewPostgresTaskStore(db, app.logger)
		app.userStore = postgres.NewPostgresUserStore(db, app.logger)
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.URL, app.logger)
		if err != nil {
			return err
		}
		app.gormDB = db
		app.taskStore = sqlite.NewTaskStore(db, app.logger)
		app.userStore = sqlite.NewUserStore(db, app.logger)
	default:
		return fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
	return nil
}

// openPostgres opens a pgx-backed *sql.DB and verifies it with a ping.
func openPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", redact.URL(url), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", redact.URL(url), err)
	}
	return db, nil
}

// cleanup releases the cache and database connections.
func (app *application) cleanup() {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing redis client", redact.Attr(err))
		}
		app.cache = nil
	}
	if app.sqlDB != nil {
		if err := app.sqlDB.Close(); err != nil {
			app.logger.Error("error closing database connection", redact.Attr(err))
		}
		app.sqlDB = nil
	}
	if app.gormDB != nil {
		if err := sqlite.Close(app.gormDB); err != nil {
			app.logger.Error("error closing database connection", redact.Attr(err))
		}
		app.gormDB = nil
	}
	app.logger.Info("application shutdown completed")
}
