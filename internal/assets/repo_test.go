package assets

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_devices_asset_tag"}

	assert.True(t, uniqueViolation(dup, "uq_devices_asset_tag"))
	assert.True(t, uniqueViolation(fmt.Errorf("insert device: %w", dup), "uq_devices_asset_tag"),
		"wrapped driver errors must still map to a duplicate")

	assert.False(t, uniqueViolation(dup, "uq_roles_name"))
	assert.False(t, uniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "uq_devices_asset_tag"}, "uq_devices_asset_tag"))
	assert.False(t, uniqueViolation(errors.New("connection reset"), "uq_devices_asset_tag"))
}
