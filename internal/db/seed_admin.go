package db

import (
	"context"
	"errors"
	"time"

	"github.com/contacthub/contacthub/internal/config"
	"github.com/contacthub/contacthub/internal/domain/user"
	"github.com/contacthub/contacthub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the configured admin account if it does not exist
// yet. A no-op when admin credentials are not configured.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1)`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, username, password_hash, role, avatar, verified, disabled, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,'',TRUE,FALSE,$6,$7)`,
		uuid.NewString(), cfg.AdminEmail, "admin", hash, user.RoleAdmin, now, now)

	return err
}
