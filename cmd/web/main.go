package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/myrjola/loadcoach/internal/envstruct"
	"github.com/myrjola/loadcoach/internal/errors"
	"github.com/myrjola/loadcoach/internal/flightrecorder"
	"github.com/myrjola/loadcoach/internal/logging"
	"github.com/myrjola/loadcoach/internal/metrics"
	"github.com/myrjola/loadcoach/internal/postgres"
	"github.com/myrjola/loadcoach/internal/sqlite"
	"github.com/myrjola/loadcoach/internal/training"
	"github.com/prometheus/client_golang/prometheus"
)

type application struct {
	logger          *slog.Logger
	trainingService *training.Service
	metrics         *metrics.Manager
	registry        *prometheus.Registry
	requestTimeout  time.Duration
	flightRecorder  *flightrecorder.Recorder // nil when trace capture is disabled
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"LOADCOACH_ADDR" envDefault:"localhost:8080"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"LOADCOACH_SQLITE_URL" envDefault:"./loadcoach.sqlite3"`
	// PostgresURL selects Postgres, for example Supabase, as the storage backend instead of SQLite when set.
	PostgresURL string `env:"LOADCOACH_POSTGRES_URL" envDefault:""`
	// OpenAIAPIKey enables profiling of exercises missing from the catalog.
	OpenAIAPIKey string `env:"LOADCOACH_OPENAI_API_KEY" envDefault:""`
	// RequestTimeout bounds the time a handler may take.
	RequestTimeout time.Duration `env:"LOADCOACH_REQUEST_TIMEOUT" envDefault:"2s"`
	// TracesDir enables capturing execution traces of timed out requests into the directory.
	TracesDir string `env:"LOADCOACH_TRACES_DIR" envDefault:""`
}

const envFileKey = "LOADCOACH_ENV_FILE"

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	envFile, ok := lookupEnv(envFileKey)
	if !ok {
		envFile = ".env"
	}
	if lookupEnv, err = envstruct.WithDotenv(envFile, lookupEnv); err != nil {
		return errors.Wrap(err, "load dotenv", slog.String("path", envFile))
	}

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	var (
		store      *training.Store
		collectors []prometheus.Collector
	)
	if cfg.PostgresURL != "" {
		pool, poolErr := postgres.NewPool(ctx, cfg.PostgresURL, logger)
		if poolErr != nil {
			return errors.Wrap(poolErr, "open postgres")
		}
		defer pool.Close()
		store = training.NewPostgresStore(pool, logger)
		collectors = append(collectors,
			pgxpoolprometheus.NewCollector(pool, map[string]string{"db_name": pool.Config().ConnConfig.Database}))
	} else {
		db, dbErr := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
		if dbErr != nil {
			return errors.Wrap(dbErr, "open db", slog.String("url", cfg.SqliteURL))
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
			}
		}()
		optimizerCtx, stopOptimizer := context.WithCancel(ctx)
		var optimizer sync.WaitGroup
		optimizer.Go(func() { db.RunOptimizer(optimizerCtx, time.Hour) })
		defer func() {
			stopOptimizer()
			optimizer.Wait()
		}()
		store = training.NewSQLiteStore(db, logger)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	registry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("loadcoach", "web", registry)

	opts := []training.Option{training.WithRecorder(metricsManager)}
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, training.WithProfiler(training.NewOpenAIProfiler(cfg.OpenAIAPIKey)))
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDir != "" {
		if recorder, err = flightrecorder.New(logger, cfg.TracesDir); err != nil {
			return errors.Wrap(err, "create flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(ctx)
	}

	app := application{
		logger:          logger,
		trainingService: training.NewService(store, logger, opts...),
		metrics:         metricsManager,
		registry:        registry,
		requestTimeout:  cfg.RequestTimeout,
		flightRecorder:  recorder,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
