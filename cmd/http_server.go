package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/trail-report/api"
	"github.com/frahmantamala/trail-report/internal"
	"github.com/frahmantamala/trail-report/internal/backoffice"
	"github.com/frahmantamala/trail-report/internal/compensation"
	"github.com/frahmantamala/trail-report/internal/core/events"
	"github.com/frahmantamala/trail-report/internal/directory"
	directoryPostgres "github.com/frahmantamala/trail-report/internal/directory/postgres"
	"github.com/frahmantamala/trail-report/internal/export"
	"github.com/frahmantamala/trail-report/internal/metrics"
	"github.com/frahmantamala/trail-report/internal/session"
	"github.com/frahmantamala/trail-report/internal/submission"
	"github.com/frahmantamala/trail-report/internal/transport/rest"
	"github.com/frahmantamala/trail-report/internal/transport/swagger"
	"github.com/frahmantamala/trail-report/internal/validation"
	"github.com/frahmantamala/trail-report/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	Bus      *events.EventBus
	Registry *session.Registry
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// open sessions lose their pending autosave and polling here
		deps.Registry.CloseAll()
		deps.Bus.Close()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Setup(os.Stdout, config.Env, config.Observability.Logging.Level, config.Observability.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	tariffService := directory.NewTariffService(directoryPostgres.NewTariffRepository(gormDB), log)
	qualificationService := directory.NewQualificationService(directoryPostgres.NewQualificationRepository(gormDB), log)
	compensationService := compensation.NewService(tariffService, qualificationService, log)

	bus := events.NewEventBus(log)
	bus.Subscribe(events.Wildcard, func(ctx context.Context, event events.Event) error {
		log.Debug("report event", "event_id", event.EventID(), "event_type", event.EventType())
		return nil
	})

	var recorder *metrics.Recorder
	if config.Observability.Metrics.Enabled {
		recorder = metrics.NewRecorder()
	}

	client := backoffice.NewClient(backoffice.Config{
		BaseURL:        config.BackOffice.BaseURL,
		APIKey:         config.BackOffice.APIKey,
		RequestTimeout: config.BackOffice.RequestTimeout,
		StatusTimeout:  config.BackOffice.StatusTimeout,
	}, log)

	registry := session.NewRegistry(submission.Dependencies{
		BackOffice: client,
		Calculator: compensationService,
		Notifier:   events.NewNotifier(bus),
		Metrics:    recorder,
		Logger:     log,
	}, submission.ConfigFrom(config.Lifecycle), config.Lifecycle.NotificationFeedLength)
	sessionService := session.NewService(registry, compensationService, export.NewWriter(log), log)

	doc, err := swagger.Load(context.Background(), api.OpenAPI)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	log.Debug("openapi document loaded", "version", doc.Version(), "operations", len(doc.Operations()))

	handlers := rest.Handlers{
		Compensation: compensation.NewHandler(compensationService),
		Validation:   validation.NewHandler(),
		Session:      session.NewHandler(sessionService),
		OpenAPI:      doc,
		Sessions:     registry,
	}
	if recorder != nil {
		handlers.Metrics = recorder.Handler()
		handlers.MetricsPath = config.Observability.Metrics.Path
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, handlers, config.Server.AllowedOrigins, log)

	return &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gormDB,
		Router:   router,
		Bus:      bus,
		Registry: registry,
		Logger:   log,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx connection pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
