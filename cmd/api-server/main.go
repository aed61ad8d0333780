package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-circulation/database"
	"library-circulation/internal/catalog"
	"library-circulation/internal/circulation/handler"
	"library-circulation/internal/circulation/memory"
	"library-circulation/internal/circulation/middleware"
	"library-circulation/internal/circulation/repository"
	"library-circulation/internal/circulation/service"
	"library-circulation/internal/config"
	"library-circulation/internal/logging"
	"library-circulation/internal/metrics"
	"library-circulation/internal/middleware/auth"
	"library-circulation/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, zap.String("service", "library-circulation"), zap.String("env", cfg.GoEnv))
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("api_server_failed", zap.Error(err))
	}
}

// storage is one backend behind the circulation and catalog services.
type storage struct {
	ledger   repository.InventoryLedger
	loans    repository.LoanStore
	tx       repository.Transactor
	books    repository.BookRepository
	students repository.StudentRepository
	health   map[string]handler.Pinger
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case "memory":
		store := memory.NewStore()
		if cfg.IsDevelopment() {
			n, err := catalog.Import(ctx, store, catalog.DemoRecords(), logger)
			if err != nil {
				return nil, fmt.Errorf("seed demo catalog: %w", err)
			}
			logger.Info("demo catalog loaded", zap.Int("books", n))
		}
		return &storage{
			ledger: store, loans: store, tx: store, books: store,
			students: memory.NewStudents(),
			health:   map[string]handler.Pinger{},
			close:    func() {},
		}, nil

	default:
		db, err := database.Connect(ctx, cfg.DatabaseURL, database.PoolSettings{
			MaxConns: int32(cfg.DBMaxConns),
			MinConns: int32(cfg.DBMinConns),
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db.Gorm); err != nil {
			db.Close()
			return nil, err
		}
		return &storage{
			ledger:   repository.NewInventoryRepository(db.Gorm),
			loans:    repository.NewLoanRepository(db.Gorm),
			tx:       repository.NewGormTransactor(db.Gorm),
			books:    repository.NewBookRepo(db.Gorm),
			students: repository.NewStudentRepo(db.Gorm),
			health:   map[string]handler.Pinger{"postgres": db.Pool},
			close:    db.Close,
		}, nil
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithLocation(cfg.Location()),
		service.WithLoanPeriod(cfg.LoanPeriodDays),
	}

	if cfg.RedisURL != "" {
		cache, err := repository.NewLoanListCache(cfg.RedisURL, cfg.RedisPassword, cfg.CacheTTLDuration())
		if err != nil {
			// the cache is optional, run without it
			logger.Warn("loan cache disabled", zap.Error(err))
		} else {
			defer func() { _ = cache.Close() }()
			opts = append(opts, service.WithLoanCache(cache))
			store.health["redis"] = cache
		}
	}

	var metricsHandler http.Handler
	if cfg.PrometheusEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder, err := metrics.NewPrometheus(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, service.WithMetrics(recorder))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authSvc := service.NewAuthService(store.students, service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		BcryptCost:     cfg.BcryptCost,
	}, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := server.NewRouter(server.Deps{
		Log:            logger,
		Circulation:    service.NewCirculationService(store.ledger, store.loans, store.tx, opts...),
		Catalog:        service.NewCatalogService(store.books),
		Auth:           authSvc,
		Verifier:       auth.NewHMACVerifier(cfg.JWTSecret),
		Limiter:        limiter,
		Health:         store.health,
		Metrics:        metricsHandler,
		RequestTimeout: cfg.RequestTimeout,
		Location:       cfg.Location(),
		StaffRoles:     cfg.StaffRoles,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http_server_start", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				logger.Debug("rate limiter swept", zap.Int("clients", limiter.Sweep()))
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		logger.Info("http_server_stopped")
		return nil
	})

	return g.Wait()
}
