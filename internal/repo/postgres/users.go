package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/contacthub/contacthub/internal/domain/user"
	"github.com/contacthub/contacthub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, username, password_hash, role, avatar, verified, disabled, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.Avatar,
		&u.Verified,
		&u.Disabled,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, email, username, passwordHash, role string) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("users.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, username, password_hash, role, avatar, verified, disabled, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,'',FALSE,FALSE,$6,$7)`,
			u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_uniq":
				return user.User{}, user.ErrEmailTaken
			case "users_username_uniq":
				return user.User{}, user.ErrUsernameTaken
			}
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, limit, offset int) ([]user.User, int, error) {
	var out []user.User
	total := 0

	err := r.observe("users.list", func() error {
		rows, e := r.pool.Query(ctx,
			`SELECT `+userColumns+`, COUNT(*) OVER() AS total
			 FROM users
			 ORDER BY created_at ASC, id ASC
			 LIMIT $1 OFFSET $2`, limit, offset)
		if e != nil {
			return e
		}
		defer rows.Close()

		out = make([]user.User, 0, limit)

		for rows.Next() {
			var u user.User
			var t int

			e = rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Avatar,
				&u.Verified, &u.Disabled, &u.CreatedAt, &u.UpdatedAt, &t)
			if e != nil {
				return e
			}

			total = t
			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	// No rows means no window total either; count separately so paging past
	// the end still reports how many users exist.
	if len(out) == 0 && offset > 0 {
		err = r.observe("users.list.count", func() error {
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
		})

		if err != nil {
			return nil, 0, err
		}
	}

	return out, total, nil
}

func (r *UsersRepo) SetVerified(ctx context.Context, email string) error {
	return r.mutate(ctx, "users.set_verified",
		`UPDATE users SET verified = TRUE, updated_at = NOW() WHERE lower(email) = lower($1)`, email)
}

func (r *UsersRepo) UpdateAvatar(ctx context.Context, id, url string) (user.User, error) {
	var u user.User

	err := r.observe("users.update_avatar", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users SET avatar = $2, updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+userColumns, id, url))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.mutate(ctx, "users.update_password",
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE lower(email) = lower($1)`, email, passwordHash)
}

// Disable soft-disables the account. Users are never hard-deleted.
func (r *UsersRepo) Disable(ctx context.Context, id string) error {
	return r.mutate(ctx, "users.disable",
		`UPDATE users SET disabled = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

func (r *UsersRepo) mutate(ctx context.Context, op, query string, args ...interface{}) error {
	var tag pgconn.CommandTag

	err := r.observe(op, func() error {
		var e error
		tag, e = r.pool.Exec(ctx, query, args...)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}
