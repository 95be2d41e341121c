package assets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const deviceColumns = `id, asset_tag, name, category, serial_number, status, COALESCE(assigned_to, 0), created_at, updated_at`

// ListDevices returns one page of devices ordered by asset tag.
func (r *Repository) ListDevices(ctx context.Context, limit, offset int) ([]Device, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY asset_tag LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var devices []Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// CountDevices returns the total number of devices.
func (r *Repository) CountDevices(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM devices`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// GetDevice fetches a device by ID.
func (r *Repository) GetDevice(ctx context.Context, id int64) (Device, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Device{}, shared.ErrNotFound
		}
		return Device{}, err
	}
	return device, nil
}

// CreateDevice inserts a new device.
func (r *Repository) CreateDevice(ctx context.Context, d Device) (Device, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO devices (asset_tag, name, category, serial_number, status, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), NOW(), NOW())
		RETURNING `+deviceColumns, d.AssetTag, d.Name, d.Category, d.SerialNumber, d.Status, d.AssignedTo)
	created, err := scanDevice(row)
	if err != nil {
		if uniqueViolation(err, "uq_devices_asset_tag") {
			return Device{}, shared.ErrDuplicate
		}
		return Device{}, err
	}
	return created, nil
}

// UpdateDevice updates an existing device.
func (r *Repository) UpdateDevice(ctx context.Context, d Device) (Device, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE devices SET name = $2, category = $3, serial_number = $4, status = $5, assigned_to = NULLIF($6, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING `+deviceColumns, d.ID, d.Name, d.Category, d.SerialNumber, d.Status, d.AssignedTo)
	updated, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Device{}, shared.ErrNotFound
		}
		return Device{}, err
	}
	return updated, nil
}

// DeleteDevice removes a device by ID.
func (r *Repository) DeleteDevice(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanDevice(row pgx.Row) (Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.AssetTag, &d.Name, &d.Category, &d.SerialNumber, &d.Status, &d.AssignedTo, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique constraint violation on
// the named constraint. pgx/v5 wraps the server error, so the check walks
// the chain with errors.As.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
}
