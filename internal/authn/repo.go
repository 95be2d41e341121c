package authn

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetgrid/assetgrid/internal/shared"
)

// Repository defines persistence operations for the authn module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Subject, error)
	GetSubjectByID(ctx context.Context, id int64) (*Subject, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername fetches a subject by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Subject, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, username, name, password_hash, is_active, created_at, updated_at FROM users WHERE username = $1`, username)
	return scanSubject(row)
}

// GetSubjectByID fetches a subject by ID.
func (r *PGRepository) GetSubjectByID(ctx context.Context, id int64) (*Subject, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, username, name, password_hash, is_active, created_at, updated_at FROM users WHERE id = $1`, id)
	return scanSubject(row)
}

func scanSubject(row pgx.Row) (*Subject, error) {
	var s Subject
	if err := row.Scan(&s.ID, &s.Username, &s.Name, &s.PasswordHash, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

var _ Repository = (*PGRepository)(nil)
