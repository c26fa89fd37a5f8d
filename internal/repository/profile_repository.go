package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"autods/internal/model"
)

// ProfileRepository defines persistence operations for profile rows.
type ProfileRepository interface {
	// Upsert writes profile, replacing the names and email of an existing row with the same ID.
	Upsert(ctx context.Context, profile *model.Profile) error
	Delete(ctx context.Context, id string) error
}

// Migrator is implemented by repositories that can create their own table.
type Migrator interface {
	Migrate(ctx context.Context) error
}

type gormProfileRepository struct {
	db    *gorm.DB
	table string
}

// NewGormProfileRepository builds a GORM-backed repository writing to table.
func NewGormProfileRepository(db *gorm.DB, table string) ProfileRepository {
	if table == "" {
		table = model.ProfileTable
	}
	return &gormProfileRepository{db: db, table: table}
}

func (r *gormProfileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	err := r.db.WithContext(ctx).
		Table(r.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email_id", "first_name", "last_name"}),
		}).
		Create(profile).Error
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *gormProfileRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Table(r.table).Where("id = ?", id).Delete(&model.Profile{}).Error; err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (r *gormProfileRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Table(r.table).AutoMigrate(&model.Profile{}); err != nil {
		return fmt.Errorf("migrate profile table: %w", err)
	}
	return nil
}
