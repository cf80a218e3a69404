package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
)

// RoleRepository defines operations for per-user role rows
type RoleRepository interface {
	FindByUser(ctx context.Context, userID string) (*model.Role, error)
	// EnsureRole assigns a role to a user that has none yet. The first
	// row ever created in an empty table gets "admin", every later
	// first-time assignment gets "user". The count and insert run in one
	// transaction holding a table lock, so two concurrent first sign-ups
	// cannot both win admin.
	EnsureRole(ctx context.Context, userID string) (string, error)
	UpdateRole(ctx context.Context, userID, role string) error
}

type roleRepository struct {
	db PgxIface
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db PgxIface) RoleRepository {
	return &roleRepository{db: db}
}

// FindByUser retrieves the role row for a user
func (r *roleRepository) FindByUser(ctx context.Context, userID string) (*model.Role, error) {
	role := &model.Role{}
	sql := `SELECT user_id, role, created_at FROM roles WHERE user_id = $1`
	err := r.db.QueryRow(ctx, sql, userID).Scan(&role.UserID, &role.Role, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No role yet, caller decides whether to bootstrap
		}
		return nil, fmt.Errorf("failed to find role by user: %w", err)
	}
	return role, nil
}

func (r *roleRepository) EnsureRole(ctx context.Context, userID string) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin role transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes concurrent first resolutions; without it two empty-table
	// counts could both observe zero.
	if _, err := tx.Exec(ctx, `LOCK TABLE roles IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return "", fmt.Errorf("failed to lock roles table: %w", err)
	}

	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&count); err != nil {
		return "", fmt.Errorf("failed to count roles: %w", err)
	}

	role := model.RoleUser
	if count == 0 {
		role = model.RoleAdmin
	}

	sql := `INSERT INTO roles (user_id, role, created_at) VALUES ($1, $2, NOW())
            ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.Exec(ctx, sql, userID, role); err != nil {
		return "", fmt.Errorf("failed to insert role: %w", err)
	}

	// The row may have existed before the lock was taken; the stored
	// value wins over the computed one.
	var stored string
	if err := tx.QueryRow(ctx, `SELECT role FROM roles WHERE user_id = $1`, userID).Scan(&stored); err != nil {
		return "", fmt.Errorf("failed to read back role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit role transaction: %w", err)
	}
	return stored, nil
}

// UpdateRole sets an existing user's role (admin operation)
func (r *roleRepository) UpdateRole(ctx context.Context, userID, role string) error {
	sql := `INSERT INTO roles (user_id, role, created_at) VALUES ($1, $2, NOW())
            ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`
	if _, err := r.db.Exec(ctx, sql, userID, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}
