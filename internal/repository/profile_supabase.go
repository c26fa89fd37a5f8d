package repository

import (
	"context"
	"fmt"

	"autods/internal/gateway/supabase"
	"autods/internal/model"
)

type supabaseProfileRepository struct {
	db    *supabase.DatabaseClient
	table string
}

// NewSupabaseProfileRepository builds a repository on the Supabase REST API.
func NewSupabaseProfileRepository(db *supabase.DatabaseClient, table string) ProfileRepository {
	if table == "" {
		table = model.ProfileTable
	}
	return &supabaseProfileRepository{db: db, table: table}
}

func (r *supabaseProfileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	if err := r.db.Upsert(ctx, r.table, profile, "id"); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *supabaseProfileRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.DeleteEq(ctx, r.table, "id", id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
