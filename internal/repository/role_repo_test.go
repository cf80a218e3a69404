package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRepository_FindByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoleRepository(mock)

	mock.ExpectQuery(`SELECT user_id, role, created_at FROM roles WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "role", "created_at"}).
			AddRow("u1", model.RoleAdmin, time.Now()))

	role, err := repo.FindByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, model.RoleAdmin, role.Role)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_FindByUser_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoleRepository(mock)

	mock.ExpectQuery(`SELECT user_id, role, created_at FROM roles`).
		WithArgs("u1").
		WillReturnError(pgx.ErrNoRows)

	role, err := repo.FindByUser(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Nil(t, role)
}

func TestRoleRepository_EnsureRole_FirstRowBecomesAdmin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoleRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE roles IN SHARE ROW EXCLUSIVE MODE`).
		WillReturnResult(pgxmock.NewResult("LOCK", 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM roles`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec(`INSERT INTO roles`).
		WithArgs("u1", model.RoleAdmin).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT role FROM roles WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(model.RoleAdmin))
	mock.ExpectCommit()

	role, err := repo.EnsureRole(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_EnsureRole_LaterRowsBecomeUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoleRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE roles IN SHARE ROW EXCLUSIVE MODE`).
		WillReturnResult(pgxmock.NewResult("LOCK", 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM roles`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectExec(`INSERT INTO roles`).
		WithArgs("u4", model.RoleUser).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT role FROM roles WHERE user_id = \$1`).
		WithArgs("u4").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(model.RoleUser))
	mock.ExpectCommit()

	role, err := repo.EnsureRole(context.Background(), "u4")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_EnsureRole_ExistingRowWins(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoleRepository(mock)

	// Row inserted before the lock was taken: the conflict clause is a
	// no-op and the stored role is returned
	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE roles IN SHARE ROW EXCLUSIVE MODE`).
		WillReturnResult(pgxmock.NewResult("LOCK", 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM roles`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec(`INSERT INTO roles`).
		WithArgs("u1", model.RoleAdmin).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT role FROM roles WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(model.RoleUser))
	mock.ExpectCommit()

	role, err := repo.EnsureRole(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)
}

func TestRoleRepository_UpdateRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoleRepository(mock)

	mock.ExpectExec(`INSERT INTO roles`).
		WithArgs("u1", model.RoleAdmin).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.UpdateRole(context.Background(), "u1", model.RoleAdmin))
	assert.NoError(t, mock.ExpectationsWereMet())
}
