package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"library-circulation/internal/circulation/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = time.Minute * 5
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = time.Second * 5
)

// PoolSettings sizes the pgx connection pool.
type PoolSettings struct {
	MaxConns int32
	MinConns int32
}

// DB bundles the pgx pool with the GORM handle the repositories run on.
// Both share the same connections.
type DB struct {
	Pool  *pgxpool.Pool
	Gorm  *gorm.DB
	sqlDB *sql.DB
}

// Connect opens the pgx pool, verifies it and wraps it for GORM.
func Connect(ctx context.Context, databaseURL string, pool PoolSettings, log *zap.Logger) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if pool.MaxConns > 0 {
		cfg.MaxConns = pool.MaxConns
	}
	if pool.MinConns >= 0 && pool.MinConns <= cfg.MaxConns {
		cfg.MinConns = pool.MinConns
	}
	cfg.MaxConnLifetime = defaultMaxConnLifetime
	cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	gdb, sqlDB, err := OpenGorm(p, log)
	if err != nil {
		p.Close()
		return nil, err
	}

	log.Info("connected to postgres",
		zap.String("host", cfg.ConnConfig.Host),
		zap.String("database", cfg.ConnConfig.Database),
		zap.Int32("max_conns", cfg.MaxConns),
	)
	return &DB{Pool: p, Gorm: gdb, sqlDB: sqlDB}, nil
}

// OpenGorm puts GORM on top of an existing pgx pool. GORM's own messages go
// to log.
func OpenGorm(pool *pgxpool.Pool, log *zap.Logger) (*gorm.DB, *sql.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, sqlDB, nil
}

// Migrate creates or updates the books, borrowings and students tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Book{}, &models.Loan{}, &models.Student{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (d *DB) Close() {
	if d == nil {
		return
	}
	if d.sqlDB != nil {
		_ = d.sqlDB.Close()
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}
