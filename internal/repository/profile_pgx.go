package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"autods/internal/model"
)

// execer is the subset of pgxpool.Pool the repository needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgxProfileRepository struct {
	db    execer
	table string
}

// NewPgxProfileRepository builds a Postgres repository on a pgx pool.
func NewPgxProfileRepository(db execer, table string) ProfileRepository {
	if table == "" {
		table = model.ProfileTable
	}
	return &pgxProfileRepository{db: db, table: pgx.Identifier{table}.Sanitize()}
}

func (r *pgxProfileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, email_id, first_name, last_name, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	email_id = EXCLUDED.email_id,
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name`, r.table)

	_, err := r.db.Exec(ctx, query, profile.ID, profile.Email, profile.FirstName, profile.LastName, profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *pgxProfileRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// Migrate creates the profile table when it does not exist.
func (r *pgxProfileRepository) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id uuid PRIMARY KEY,
	email_id text NOT NULL,
	first_name text NOT NULL,
	last_name text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
)`, r.table)
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("migrate profile table: %w", err)
	}
	return nil
}
