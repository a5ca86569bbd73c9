package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/sci-ndp/ndp-affinities/config"
	"github.com/sci-ndp/ndp-affinities/internal/handlers"
	"github.com/sci-ndp/ndp-affinities/pkg/database"
	"github.com/sci-ndp/ndp-affinities/pkg/events"
	"github.com/sci-ndp/ndp-affinities/pkg/health"
	"github.com/sci-ndp/ndp-affinities/pkg/kafka"
	"github.com/sci-ndp/ndp-affinities/pkg/linked"
	appmiddleware "github.com/sci-ndp/ndp-affinities/pkg/middleware"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
	"github.com/sci-ndp/ndp-affinities/pkg/tracing"
	"github.com/sci-ndp/ndp-affinities/pkg/tracing/exporters"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	if cfg.PrettyLogs {
		zapLogger, _ = zap.NewDevelopment()
	} else {
		zapLogger, _ = zap.NewProduction()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func run(cfg *config.Config, logger ectologger.Logger) error {
	ctx := context.Background()

	// Tracing
	if cfg.TracingEnabled {
		exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: cfg.TracingOTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resource.NewSchemaless(
				attribute.String("service.name", cfg.AppName),
				attribute.String("service.version", cfg.Version),
			)),
		)
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()

		tracing.SetTracer(tp.Tracer(cfg.AppName))
	}

	// Database
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sqlxDB.Close()

	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	// Migrations
	driver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrationService.Migrate(cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	// Events
	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	// Repositories
	datasetRepo := repositories.NewDatasetRepository(db, logger)
	endpointRepo := repositories.NewEndpointRepository(db, logger)
	serviceRepo := repositories.NewServiceRepository(db, logger)
	datasetEndpointRepo := repositories.NewDatasetEndpointRepository(db, logger)
	datasetServiceRepo := repositories.NewDatasetServiceRepository(db, logger)
	serviceEndpointRepo := repositories.NewServiceEndpointRepository(db, logger)
	affinityRepo := repositories.NewAffinityRepository(db, logger)

	resolver := linked.NewResolver(
		datasetRepo, endpointRepo, serviceRepo,
		datasetEndpointRepo, datasetServiceRepo, serviceEndpointRepo,
		affinityRepo, logger,
	)

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = appmiddleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(appmiddleware.Context())
	e.Use(appmiddleware.Logger(logger))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(sqlxDB, cfg.Version)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("")
	handlers.NewDatasetHandler(datasetRepo, emitter).RegisterRoutes(api)
	handlers.NewEndpointHandler(endpointRepo, emitter).RegisterRoutes(api)
	handlers.NewServiceHandler(serviceRepo, emitter).RegisterRoutes(api)
	handlers.NewDatasetEndpointHandler(datasetEndpointRepo, datasetRepo, endpointRepo, emitter).RegisterRoutes(api)
	handlers.NewDatasetServiceHandler(datasetServiceRepo, datasetRepo, serviceRepo, emitter).RegisterRoutes(api)
	handlers.NewServiceEndpointHandler(serviceEndpointRepo, serviceRepo, endpointRepo, emitter).RegisterRoutes(api)
	handlers.NewAffinityHandler(affinityRepo, datasetRepo, emitter).RegisterRoutes(api)
	handlers.NewLinkedHandler(resolver).RegisterRoutes(api)

	checker.SetReady(true)

	// Start and wait for shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(map[string]any{"port": cfg.Port}).Info("Starting server")
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.WithFields(map[string]any{"signal": sig.String()}).Info("Shutting down")
	}

	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return e.Shutdown(shutdownCtx)
}
