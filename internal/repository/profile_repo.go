package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
)

// ProfileRepository defines operations for profile data
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	// Upsert updates the profile if present, otherwise inserts it.
	// Used at verification time to guarantee every verified user has
	// a profile row carrying the sign-up name.
	Upsert(ctx context.Context, profile *model.Profile) error
	UpdateFullName(ctx context.Context, id, fullName string) error
}

type profileRepository struct {
	db PgxIface
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db PgxIface) ProfileRepository {
	return &profileRepository{db: db}
}

// FindByID retrieves a profile by user ID
func (r *profileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	profile := &model.Profile{}
	sql := `SELECT id, full_name, email, avatar_url, updated_at FROM profiles WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&profile.ID, &profile.FullName, &profile.Email, &profile.AvatarURL, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Profile not found
		}
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	sql := `INSERT INTO profiles (id, full_name, email, updated_at) VALUES ($1, $2, $3, NOW())
            ON CONFLICT (id) DO UPDATE SET full_name = EXCLUDED.full_name, email = EXCLUDED.email, updated_at = NOW()
            RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql, profile.ID, profile.FullName, profile.Email).Scan(&profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// UpdateFullName updates the display name and bumps the timestamp
func (r *profileRepository) UpdateFullName(ctx context.Context, id, fullName string) error {
	sql := `UPDATE profiles SET full_name = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	var updatedAt any
	err := r.db.QueryRow(ctx, sql, fullName, id).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("profile not found for update")
		}
		return fmt.Errorf("failed to update profile name: %w", err)
	}
	return nil
}
