package database

import (
	"testing"

	"shopfusion/internal/config"
	"shopfusion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := Open(&config.Config{DBDriver: config.DriverSQLite, DatabaseDSN: "file::memory:"})
	require.NoError(t, err)

	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}
	assert.True(t, db.Migrator().HasTable("cart_item_variations"))
	assert.True(t, db.Migrator().HasTable("product_categories"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "mysql", DatabaseDSN: "x"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
