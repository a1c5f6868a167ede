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

	httpapi "github.com/filevault/filevault/internal/http"
	"github.com/filevault/filevault/internal/media/s3"
	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/internal/store"
	"github.com/filevault/filevault/internal/store/drivers/sqlite"
	"github.com/filevault/filevault/pkg/cryptox"
	"github.com/filevault/filevault/pkg/jwtx"
	"github.com/filevault/filevault/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the service together: store, media host, services,
// router and server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	media *s3.Client

	tokenService *service.TokenService
	userService  *service.UserService
	fileService  *service.FileService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "filevault",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initMedia(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("filevault starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown drains in-flight requests and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down filevault...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("filevault stopped")
	return nil
}

// initDatabase opens the sqlite store and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initMedia connects to the object store and ensures the bucket exists.
func (app *Application) initMedia() error {
	client, err := s3.NewClient(context.Background(), s3.Config{
		Endpoint:        app.cfg.S3Endpoint,
		Region:          app.cfg.S3Region,
		AccessKeyID:     app.cfg.S3AccessKeyID,
		SecretAccessKey: app.cfg.S3SecretKey,
		Bucket:          app.cfg.S3Bucket,
		UseSSL:          app.cfg.S3UseSSL,
		PublicBaseURL:   app.cfg.S3PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize media host: %w", err)
	}
	app.media = client

	app.logger.Info("media host ready", "bucket", app.cfg.S3Bucket)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:      app.db,
		Access:     jwtx.NewHS256([]byte(app.cfg.AccessTokenSecret), app.cfg.TokenIssuer),
		Refresh:    jwtx.NewHS256([]byte(app.cfg.RefreshTokenSecret), app.cfg.TokenIssuer),
		Issuer:     app.cfg.TokenIssuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.userService = &service.UserService{
		Store:  app.db,
		Media:  app.media,
		Tokens: app.tokenService,
	}

	app.fileService = &service.FileService{
		Store: app.db,
		Media: app.media,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.FileService = app.fileService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
