package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/OtoHubID/otohub_api/internal/models"
)

// AdminUserRepository handles data access for back-office users.
type AdminUserRepository struct {
	db *sqlx.DB
}

// NewAdminUserRepository creates a new AdminUserRepository.
func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByEmail returns an admin user by email.
func (r *AdminUserRepository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	const q = `SELECT id, email, password_hash, name, is_active, last_login_at, created_at, updated_at
	           FROM admin_users WHERE email = $1`

	var u models.AdminUser
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts an admin user row.
func (r *AdminUserRepository) Create(ctx context.Context, u *models.AdminUser) error {
	const q = `
        INSERT INTO admin_users (email, password_hash, name, is_active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,NOW(),NOW())
        RETURNING id`

	return r.db.QueryRowContext(ctx, q, u.Email, u.PasswordHash, u.Name, u.IsActive).Scan(&u.ID)
}

// TouchLastLogin records a successful login.
func (r *AdminUserRepository) TouchLastLogin(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE admin_users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}
