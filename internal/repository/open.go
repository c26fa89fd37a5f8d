package repository

import (
	"context"
	"fmt"

	"autods/internal/config"
	"autods/internal/db"
	"autods/internal/gateway/supabase"
)

// Open builds the ProfileRepository selected by cfg.ProfileDriver. The
// returned close function releases any connection pool Open created.
func Open(ctx context.Context, cfg *config.Config, sb *supabase.Client) (ProfileRepository, func(), error) {
	switch cfg.ProfileDriver {
	case "", "supabase":
		if sb == nil {
			return nil, nil, fmt.Errorf("supabase profiles require a supabase client")
		}
		return NewSupabaseProfileRepository(sb.Database(), cfg.ProfileTable), func() {}, nil
	case "mysql":
		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return NewGormProfileRepository(gormDB, cfg.ProfileTable), closeFn, nil
	case "postgres":
		pool, err := db.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return NewPgxProfileRepository(pool, cfg.ProfileTable), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown profile driver %q", cfg.ProfileDriver)
	}
}
