package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"autods/internal/config"
	"autods/internal/gateway/supabase"
	"autods/internal/logging"
	"autods/internal/repository"
	"autods/internal/storage"
)

// Seed prepares a fresh environment: the upload bucket and, for SQL
// backends, the profile table.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var sb *supabase.Client
	if cfg.SupabaseURL != "" {
		sb, err = supabase.New(supabase.Config{
			ProjectURL: cfg.SupabaseURL,
			AnonKey:    cfg.SupabaseAnonKey,
			ServiceKey: cfg.SupabaseServiceKey,
			Timeout:    cfg.HTTPTimeout,
		})
		if err != nil {
			logger.Fatal("supabase init", zap.Error(err))
		}
	}

	store, err := storage.New(ctx, cfg, sb)
	if err != nil {
		logger.Fatal("storage init", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal("ensure bucket", zap.String("bucket", cfg.StorageBucket), zap.Error(err))
	}
	logger.Info("bucket ready", zap.String("driver", cfg.StorageDriver), zap.String("bucket", cfg.StorageBucket))

	profiles, closeProfiles, err := repository.Open(ctx, cfg, sb)
	if err != nil {
		logger.Fatal("profile repository init", zap.String("driver", cfg.ProfileDriver), zap.Error(err))
	}
	defer closeProfiles()

	migrator, ok := profiles.(repository.Migrator)
	if !ok {
		// PostgREST tables are managed in the Supabase project itself.
		logger.Info("profile table is managed externally", zap.String("driver", cfg.ProfileDriver))
		return
	}
	if err := migrator.Migrate(ctx); err != nil {
		logger.Fatal("migrate profile table", zap.String("table", cfg.ProfileTable), zap.Error(err))
	}
	logger.Info("profile table ready", zap.String("driver", cfg.ProfileDriver), zap.String("table", cfg.ProfileTable))
}
