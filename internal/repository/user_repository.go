package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dojocal/scheduler-api/internal/models"
)

type userRow struct {
	models.User
	StripeID sql.NullString `db:"stripe_id"`
}

// UserRepository reads scheduler profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user profile.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT username, display_name, dojo_cohort, previous_cohort, timezone_override, role, stripe_id, updated_at FROM users WHERE username = $1 LIMIT 1`
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	user := row.User
	if row.StripeID.Valid && row.StripeID.String != "" {
		user.CoachInfo = &models.CoachInfo{StripeID: row.StripeID.String}
	}
	return &user, nil
}

// UpdateTimezone stores the user's timezone override.
func (r *UserRepository) UpdateTimezone(ctx context.Context, username, zone string, updatedAt time.Time) error {
	const query = `UPDATE users SET timezone_override = $2, updated_at = $3 WHERE username = $1`
	res, err := r.db.ExecContext(ctx, query, username, zone, updatedAt)
	if err != nil {
		return fmt.Errorf("update timezone: %w", err)
	}
	return requireAffected(res)
}
