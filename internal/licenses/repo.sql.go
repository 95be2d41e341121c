package licenses

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetgrid/assetgrid/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const licenseColumns = `id, name, vendor, seats, expires_at, created_at, updated_at`

// ListLicenses returns all licenses ordered by name.
func (r *Repository) ListLicenses(ctx context.Context) ([]License, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+licenseColumns+` FROM licenses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLicenses(rows)
}

// GetLicense fetches a license by ID.
func (r *Repository) GetLicense(ctx context.Context, id int64) (License, error) {
	var l License
	err := r.pool.QueryRow(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE id = $1`, id).
		Scan(&l.ID, &l.Name, &l.Vendor, &l.Seats, &l.ExpiresAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return License{}, shared.ErrNotFound
		}
		return License{}, err
	}
	return l, nil
}

// ExpiringBefore returns licenses that expire before the cutoff.
func (r *Repository) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]License, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE expires_at < $1 ORDER BY expires_at`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLicenses(rows)
}

func collectLicenses(rows pgx.Rows) ([]License, error) {
	var licenses []License
	for rows.Next() {
		var l License
		if err := rows.Scan(&l.ID, &l.Name, &l.Vendor, &l.Seats, &l.ExpiresAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		licenses = append(licenses, l)
	}
	return licenses, rows.Err()
}
