package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
select id, email, password_hash, created_at
from users
where email = $1;
`
	var u User
	err := r.db.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("email required")
	}

	const q = `
insert into users (email, password_hash)
values ($1, $2)
returning id, email, password_hash, created_at;
`
	var u User
	err := r.db.QueryRow(ctx, q, email, passwordHash).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)

	// unique violation on email → conflict
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) PasswordHash(ctx context.Context, userID int64) (string, error) {
	const q = `select password_hash from users where id = $1;`

	var hash string
	err := r.db.QueryRow(ctx, q, userID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// UpdatePasswordHash returns the number of rows affected so the caller can
// distinguish a no-op (user gone) from success.
func (r *Repo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) (int64, error) {
	const q = `update users set password_hash = $2 where id = $1;`

	ct, err := r.db.Exec(ctx, q, userID, newHash)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// Delete removes the user and all their projects in one transaction, projects
// first so the foreign key holds at every point.
func (r *Repo) Delete(ctx context.Context, userID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `delete from projects where user_id = $1;`, userID); err != nil {
		return fmt.Errorf("delete projects: %w", err)
	}
	if _, err := tx.Exec(ctx, `delete from users where id = $1;`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return tx.Commit(ctx)
}
