package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound covers both a nonexistent project id and an id owned by a
// different user; the two are indistinguishable to callers.
var ErrNotFound = errors.New("project not found")

type Project struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) List(ctx context.Context, ownerID int64) ([]Project, error) {
	const q = `
select id, user_id, title, thumbnail_url, created_at
from projects
where user_id = $1
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.ThumbnailURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id, ownerID int64) (*Project, error) {
	const q = `
select id, user_id, title, thumbnail_url, created_at
from projects
where id = $1 and user_id = $2;
`
	var p Project
	err := r.db.QueryRow(ctx, q, id, ownerID).Scan(&p.ID, &p.UserID, &p.Title, &p.ThumbnailURL, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, ownerID int64, title string, thumbnailURL *string) (*Project, error) {
	if title == "" {
		return nil, fmt.Errorf("title required")
	}

	const q = `
insert into projects (user_id, title, thumbnail_url)
values ($1, $2, $3)
returning id, user_id, title, thumbnail_url, created_at;
`
	var p Project
	err := r.db.QueryRow(ctx, q, ownerID, title, thumbnailURL).
		Scan(&p.ID, &p.UserID, &p.Title, &p.ThumbnailURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update sets the title and, when setThumbnail is true, replaces the
// thumbnail reference (nil clears it). Zero rows affected means the project
// does not exist or belongs to someone else.
func (r *Repo) Update(ctx context.Context, id, ownerID int64, title string, thumbnailURL *string, setThumbnail bool) (int64, error) {
	if setThumbnail {
		const q = `update projects set title = $3, thumbnail_url = $4 where id = $1 and user_id = $2;`
		ct, err := r.db.Exec(ctx, q, id, ownerID, title, thumbnailURL)
		if err != nil {
			return 0, err
		}
		return ct.RowsAffected(), nil
	}

	const q = `update projects set title = $3 where id = $1 and user_id = $2;`
	ct, err := r.db.Exec(ctx, q, id, ownerID, title)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *Repo) Delete(ctx context.Context, id, ownerID int64) (int64, error) {
	const q = `delete from projects where id = $1 and user_id = $2;`

	ct, err := r.db.Exec(ctx, q, id, ownerID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
