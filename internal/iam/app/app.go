package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/teamforge/iam/internal/iam/cache"
	cacheredis "github.com/teamforge/iam/internal/iam/cache/redis"
	httpapi "github.com/teamforge/iam/internal/iam/http"
	"github.com/teamforge/iam/internal/iam/notify"
	"github.com/teamforge/iam/internal/iam/service"
	"github.com/teamforge/iam/internal/iam/store"
	"github.com/teamforge/iam/internal/iam/store/drivers/sqlite"
	"github.com/teamforge/iam/pkg/cryptox"
	"github.com/teamforge/iam/pkg/jwtx"
	"github.com/teamforge/iam/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the identity service together: store, ephemeral token
// cache, notification sink, services, and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	cache cache.Cache
	codec *jwtx.HS256
	sink  notify.Sink

	authService  *service.AuthService
	authzService *service.AuthzService
	otpService   *service.OTPService
	roleService  *service.RoleService
	userService  *service.UserService
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. The database
// is migrated and the default role catalog seeded before the server is built,
// so a returned Application is ready to serve.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "iam",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	codec, err := jwtx.NewHS256([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCache(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("iam service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the server, the housekeeping worker, and the
// backing connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down iam service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.cache.Close(); err != nil {
		app.logger.Error("error closing cache", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("iam service stopped")
	return nil
}

// initDatabase opens the store, applies migrations, and seeds the default
// role catalog.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := service.Seed(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to seed role catalog: %w", err)
	}

	app.logger.Info("database ready", "file", app.cfg.DatabaseFile)
	return nil
}

// initCache connects to redis for ephemeral tokens and selects the
// notification sink. The redis client is shared between the two.
func (app *Application) initCache() error {
	client := goredis.NewClient(&goredis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr, err)
	}
	app.cache = cacheredis.NewWithClient(client)

	if app.cfg.NotifyChannel != "" {
		app.sink = &notify.RedisSink{Client: client, Channel: app.cfg.NotifyChannel}
		app.logger.Info("notifications publish to redis", "channel", app.cfg.NotifyChannel)
	} else {
		app.sink = &notify.LogSink{Logger: app.logger}
		app.logger.Info("notifications write to the log")
	}

	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:      app.db,
		Cache:      app.cache,
		Sink:       app.sink,
		Tokens:     app.codec,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
		VerifyTTL:  app.cfg.VerifyEmailTTL,
		ResetTTL:   app.cfg.PasswordResetTTL,
	}

	app.authzService = &service.AuthzService{Store: app.db}
	app.otpService = &service.OTPService{Store: app.db, Issuer: app.cfg.Issuer}
	app.roleService = &service.RoleService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}

	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		app.cache,
		app.logger,
	)
	router.AuthService = app.authService
	router.AuthzService = app.authzService
	router.OTPService = app.otpService
	router.RoleService = app.roleService
	router.UserService = app.userService
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
