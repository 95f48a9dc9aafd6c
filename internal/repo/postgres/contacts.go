package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contacthub/contacthub/internal/domain/contact"
	"github.com/contacthub/contacthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contactColumns = `id, owner_id, first_name, last_name, email, phone, birthday, notes, created_at, updated_at`

type ContactsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewContactsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContactsRepo {
	return &ContactsRepo{pool: pool, prom: prom}
}

func (r *ContactsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanContact(row pgx.Row) (contact.Contact, error) {
	var c contact.Contact

	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Birthday,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	return c, err
}

// Create inserts a new contact for the owner. The per-owner duplicate-email
// check and the insert run in one transaction so concurrent creates cannot
// slip past the check; the unique constraint is the backstop.
func (r *ContactsRepo) Create(ctx context.Context, ownerID string, req contact.CreateContactRequest) (c contact.Contact, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool

	err = r.observe("contacts.create.duplicate_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM contacts
			WHERE owner_id = $1 AND lower(email) = lower($2)
		)`, ownerID, req.Email).Scan(&exists)
	})

	if err != nil {
		return
	}

	if exists {
		err = contact.ErrEmailTaken
		return
	}

	c = contact.NewFromCreateRequest(ownerID, req)

	err = r.observe("contacts.create.insert", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO contacts (id, owner_id, first_name, last_name, email, phone, birthday, notes, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, c.ID, c.OwnerID, c.FirstName, c.LastName, c.Email, c.Phone, c.Birthday, c.Notes, c.CreatedAt, c.UpdatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "contacts_owner_email_uniq" {
			err = contact.ErrEmailTaken
		}
		return
	}

	err = tx.Commit(ctx)
	if err != nil {
		c = contact.Contact{}
	}

	return
}

// List returns one page of the owner's contacts plus the unpaginated total.
// Owner scoping lives in the query itself, never only in calling code.
func (r *ContactsRepo) List(ctx context.Context, ownerID string, f contact.ListFilter) ([]contact.Contact, int, error) {
	conds := []string{"owner_id = $1"}
	args := []interface{}{ownerID}
	pos := 2

	if f.FirstName != nil {
		conds = append(conds, fmt.Sprintf("first_name ILIKE $%d", pos))
		args = append(args, "%"+*f.FirstName+"%")
		pos++
	}

	if f.LastName != nil {
		conds = append(conds, fmt.Sprintf("last_name ILIKE $%d", pos))
		args = append(args, "%"+*f.LastName+"%")
		pos++
	}

	if f.Email != nil {
		conds = append(conds, fmt.Sprintf("email ILIKE $%d", pos))
		args = append(args, "%"+*f.Email+"%")
		pos++
	}

	where := strings.Join(conds, " AND ")

	query := `SELECT ` + contactColumns + `, COUNT(*) OVER() AS total
		FROM contacts
		WHERE ` + where +
		fmt.Sprintf(" ORDER BY last_name ASC, first_name ASC, id ASC LIMIT $%d OFFSET $%d", pos, pos+1)

	countQuery := `SELECT COUNT(*) FROM contacts WHERE ` + where
	countArgs := append([]interface{}{}, args...)

	args = append(args, f.Limit, f.Offset)

	return r.queryPage(ctx, "contacts.list", query, countQuery, args, countArgs, f.Limit, f.Offset)
}

func (r *ContactsRepo) GetByID(ctx context.Context, ownerID, id string) (contact.Contact, error) {
	var c contact.Contact

	err := r.observe("contacts.get_by_id", func() error {
		var e error
		c, e = scanContact(r.pool.QueryRow(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND owner_id = $2`, id, ownerID))
		return e
	})

	if err != nil {
		// absent and not-owned are indistinguishable to the caller
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}
		return contact.Contact{}, err
	}

	return c, nil
}

// Update applies the full field set in a single statement, so concurrent
// updates serialize on the row and never interleave per field.
func (r *ContactsRepo) Update(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) (contact.Contact, error) {
	var c contact.Contact

	err := r.observe("contacts.update", func() error {
		var e error
		c, e = scanContact(r.pool.QueryRow(ctx,
			`UPDATE contacts
				SET first_name = $3,
					last_name = $4,
					email = $5,
					phone = $6,
					birthday = $7,
					notes = $8,
					updated_at = NOW()
			 WHERE id = $1 AND owner_id = $2
			 RETURNING `+contactColumns,
			id, ownerID, req.FirstName, req.LastName, req.Email, req.Phone, req.Birthday, req.Notes))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "contacts_owner_email_uniq" {
			return contact.Contact{}, contact.ErrEmailTaken
		}

		return contact.Contact{}, err
	}

	return c, nil
}

func (r *ContactsRepo) Delete(ctx context.Context, ownerID, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("contacts.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx,
			`DELETE FROM contacts WHERE id = $1 AND owner_id = $2`, id, ownerID)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return contact.ErrNotFound
	}

	return nil
}

func (r *ContactsRepo) Search(ctx context.Context, ownerID, query string, limit, offset int) ([]contact.Contact, int, error) {
	const where = `owner_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)`

	q := `SELECT ` + contactColumns + `, COUNT(*) OVER() AS total
		FROM contacts
		WHERE ` + where + `
		ORDER BY last_name ASC, first_name ASC, id ASC
		LIMIT $3 OFFSET $4`

	countQuery := `SELECT COUNT(*) FROM contacts WHERE ` + where
	countArgs := []interface{}{ownerID, "%" + query + "%"}

	args := []interface{}{ownerID, "%" + query + "%", limit, offset}

	return r.queryPage(ctx, "contacts.search", q, countQuery, args, countArgs, limit, offset)
}

// UpcomingBirthdays matches contacts whose birthday month/day falls inside the
// window, wrapping the year boundary when the window does.
func (r *ContactsRepo) UpcomingBirthdays(ctx context.Context, ownerID string, w contact.BirthdayWindow, limit, offset int) ([]contact.Contact, int, error) {
	cond, args := birthdayCondition(w, 2)

	where := `owner_id = $1 AND birthday IS NOT NULL AND ` + cond

	query := `SELECT ` + contactColumns + `, COUNT(*) OVER() AS total
		FROM contacts
		WHERE ` + where +
		fmt.Sprintf(` ORDER BY EXTRACT(MONTH FROM birthday), EXTRACT(DAY FROM birthday), id LIMIT $%d OFFSET $%d`,
			len(args)+2, len(args)+3)

	countQuery := `SELECT COUNT(*) FROM contacts WHERE ` + where
	countArgs := append([]interface{}{ownerID}, args...)

	all := append([]interface{}{ownerID}, args...)
	all = append(all, limit, offset)

	return r.queryPage(ctx, "contacts.upcoming_birthdays", query, countQuery, all, countArgs, limit, offset)
}

// birthdayCondition renders the window as month/day comparisons. firstArg is
// the placeholder index the condition's first argument should use.
func birthdayCondition(w contact.BirthdayWindow, firstArg int) (string, []interface{}) {
	month := `EXTRACT(MONTH FROM birthday)::int`
	day := `EXTRACT(DAY FROM birthday)::int`

	if w.CoversFullYear() {
		return "TRUE", nil
	}

	if w.From.Month() == w.To.Month() && !w.Wraps() {
		cond := fmt.Sprintf("(%s = $%d AND %s BETWEEN $%d AND $%d)",
			month, firstArg, day, firstArg+1, firstArg+2)
		return cond, []interface{}{int(w.From.Month()), w.From.Day(), w.To.Day()}
	}

	parts := []string{
		fmt.Sprintf("(%s = $%d AND %s >= $%d)", month, firstArg, day, firstArg+1),
		fmt.Sprintf("(%s = $%d AND %s <= $%d)", month, firstArg+2, day, firstArg+3),
	}
	args := []interface{}{int(w.From.Month()), w.From.Day(), int(w.To.Month()), w.To.Day()}

	if middle := w.MiddleMonths(); len(middle) > 0 {
		months := make([]int, len(middle))
		for i, m := range middle {
			months[i] = int(m)
		}
		parts = append(parts, fmt.Sprintf("%s = ANY($%d)", month, firstArg+4))
		args = append(args, months)
	}

	return "(" + strings.Join(parts, " OR ") + ")", args
}

func (r *ContactsRepo) queryPage(ctx context.Context, op, query, countQuery string, args, countArgs []interface{}, limit, offset int) ([]contact.Contact, int, error) {
	var out []contact.Contact
	total := 0

	err := r.observe(op, func() error {
		rows, e := r.pool.Query(ctx, query, args...)
		if e != nil {
			return e
		}
		defer rows.Close()

		out = make([]contact.Contact, 0, limit)

		for rows.Next() {
			var c contact.Contact
			var t int

			e = rows.Scan(&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
				&c.Birthday, &c.Notes, &c.CreatedAt, &c.UpdatedAt, &t)
			if e != nil {
				return e
			}

			total = t
			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	// An OFFSET past the last matching row yields no rows, and with them no
	// window total. Fall back to a plain count so the caller still learns
	// how many rows matched.
	if len(out) == 0 && offset > 0 {
		err = r.observe(op+".count", func() error {
			return r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
		})

		if err != nil {
			return nil, 0, err
		}
	}

	return out, total, nil
}
