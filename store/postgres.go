package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores posts in a Postgres table through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and creates the posts table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Postgres{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return s, nil
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	const q = `
	CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL CHECK (name <> ''),
		prompt TEXT NOT NULL CHECK (prompt <> ''),
		photo TEXT NOT NULL CHECK (photo <> ''),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err := s.pool.Exec(ctx, q)
	return err
}

// Close releases every pooled connection.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func (s *Postgres) CreatePost(ctx context.Context, p Post) (Post, error) {
	if err := p.Validate(); err != nil {
		return Post{}, err
	}
	const q = `
	INSERT INTO posts (name, prompt, photo)
	VALUES ($1, $2, $3)
	RETURNING id, created_at;
	`
	var id int64
	if err := s.pool.QueryRow(ctx, q, p.Name, p.Prompt, p.Photo).Scan(&id, &p.CreatedAt); err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	p.ID = strconv.FormatInt(id, 10)
	return p, nil
}

func (s *Postgres) ListPosts(ctx context.Context) ([]Post, error) {
	const q = `SELECT id, name, prompt, photo, created_at FROM posts ORDER BY id ASC;`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		var id int64
		if err := rows.Scan(&id, &p.Name, &p.Prompt, &p.Photo, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		p.ID = strconv.FormatInt(id, 10)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Postgres) GetPost(ctx context.Context, id string) (Post, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Post{}, ErrNotFound
	}
	const q = `SELECT name, prompt, photo, created_at FROM posts WHERE id = $1;`
	p := Post{ID: id}
	err = s.pool.QueryRow(ctx, q, n).Scan(&p.Name, &p.Prompt, &p.Photo, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}
