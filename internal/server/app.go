// Package server wires the sync server together: it opens the configured
// farmer store and job table, builds the services and runs the gRPC endpoint,
// the worker pool and the metrics endpoint until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/cryptox"
	"github.com/dmitrijs2005/farmsync/internal/logging"
	"github.com/dmitrijs2005/farmsync/internal/server/config"
	gs "github.com/dmitrijs2005/farmsync/internal/server/grpc"
	"github.com/dmitrijs2005/farmsync/internal/server/metrics"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/farmers"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/farmsync/internal/server/services"
	"github.com/dmitrijs2005/farmsync/internal/server/validator"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	breakerTimeout  = 30 * time.Second
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	sync    *services.SyncService
	closers []func(context.Context) error
}

// NewApp connects to the configured backends and builds the services.
// Connections opened before a failure are closed again.
func NewApp(ctx context.Context, c *config.Config) (_ *App, err error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	app := &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	cipher, err := cryptox.NewFieldCipher(c.MasterSecret)
	if err != nil {
		return nil, fmt.Errorf("field cipher: %w", err)
	}

	farmerRepo, err := app.openFarmers(ctx)
	if err != nil {
		return nil, fmt.Errorf("farmer store init error: %w", err)
	}
	jobRepo, err := app.openJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("job table init error: %w", err)
	}

	resolver := services.NewResolver(farmerRepo, cipher, c.MaxCreateAttempts, logger.With("module", "resolver"))
	app.sync = services.NewSyncService(jobRepo, validator.New(), resolver, logger.With("module", "sync"), services.SyncOptions{
		Workers:       c.Workers,
		QueueSize:     c.QueueSize,
		RecordTimeout: c.RecordTimeout,
	})
	return app, nil
}

func (app *App) openFarmers(ctx context.Context) (farmers.Repository, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch app.config.StoreDriver {
	case config.StorePostgres:
		db, err := sql.Open("pgx", app.config.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return db.Close() })
		if err := db.PingContext(ctx); err != nil {
			return nil, err
		}
		m := repomanager.NewPostgresRepositoryManager()
		if err := m.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return m.Farmers(db), nil

	case config.StoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(app.config.MongoURI))
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Disconnect)
		if err := client.Ping(ctx, nil); err != nil {
			return nil, err
		}
		breaker := farmers.NewBreaker("mongo-farmers", breakerTimeout, app.logger)
		repo := farmers.NewMongoRepository(client.Database(app.config.MongoDatabase), breaker)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	default:
		app.logger.Warn(ctx, "using in-memory farmer store; data is lost on restart")
		return farmers.NewMemoryRepository(), nil
	}
}

func (app *App) openJobs(ctx context.Context) (jobs.Repository, error) {
	if app.config.JobsDriver != config.JobsRedis {
		return jobs.NewMemoryRepository(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
		DB:       app.config.RedisDB,
	})
	app.closers = append(app.closers, func(context.Context) error { return client.Close() })

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return jobs.NewRedisRepository(client, app.config.JobTTL), nil
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			app.logger.Warn(ctx, "close backend", "error", err)
		}
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (app *App) runMetricsServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails, then releases the backends.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver, "jobs", app.config.JobsDriver)
	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	app.sync.Start(ctx)
	g.Go(func() error {
		<-ctx.Done()
		app.sync.Wait()
		return nil
	})

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.sync, app.config.SecretKey, app.config.MaxBatchSize)
		return s.Run(ctx)
	})

	if app.config.MetricsAddr != "" {
		g.Go(func() error { return app.runMetricsServer(ctx) })
	}

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
