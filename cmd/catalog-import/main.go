package main

import (
	"context"
	"log"
	"os"
	"time"

	"library-circulation/database"
	"library-circulation/internal/catalog"
	"library-circulation/internal/circulation/repository"
	"library-circulation/internal/config"
	"library-circulation/internal/logging"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// catalog-import loads books from a JSON file into Postgres:
//
//	catalog-import books.json
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <catalog.json>", os.Args[0])
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, zap.String("service", "catalog-import"))
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(os.Args[1])
	if err != nil {
		logger.Fatal("failed to open catalog file", zap.Error(err))
	}
	defer f.Close()

	records, err := catalog.ReadRecords(f)
	if err != nil {
		logger.Fatal("failed to read catalog", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.String("file", os.Args[1]), zap.Int("records", len(records)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL, database.PoolSettings{MaxConns: 2, MinConns: 0}, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db.Gorm); err != nil {
		logger.Fatal("failed to migrate", zap.Error(err))
	}

	// one transaction: a bad record leaves the catalog untouched
	var imported int
	err = db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := catalog.Import(ctx, repository.NewBookRepo(tx), records, logger)
		imported = n
		return err
	})
	if err != nil {
		logger.Fatal("import failed, nothing was written", zap.Error(err))
	}

	logger.Info("catalog imported", zap.Int("books", imported))
}
