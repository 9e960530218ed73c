package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"shopfusion/internal/database"
	"shopfusion/internal/models"
	"shopfusion/internal/notify"
	"shopfusion/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore opens a private in-memory SQLite database with the full schema.
func newTestStore(t *testing.T) (*gorm.DB, *repositories.GORMStore) {
	t.Helper()
	return openTestStore(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()))
}

// newFileTestStore is newTestStore backed by a database file on disk.
func newFileTestStore(t *testing.T) (*gorm.DB, *repositories.GORMStore) {
	t.Helper()
	return openTestStore(t, filepath.Join(t.TempDir(), "shop.db"))
}

func openTestStore(t *testing.T, dsn string) (*gorm.DB, *repositories.GORMStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db, repositories.NewGORMStore(db)
}

func seedProduct(t *testing.T, store repositories.Store, name string, price int64, stock int, variations ...models.Variation) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:        name,
		Slug:        uuid.New().String(),
		Price:       price,
		Stock:       stock,
		IsAvailable: true,
	}
	require.NoError(t, store.Products().Create(product))
	for i := range variations {
		variations[i].ProductID = product.ID
		variations[i].IsActive = true
		_, err := store.Products().FirstOrCreateVariation(&variations[i])
		require.NoError(t, err)
	}
	product.Variations = variations
	return product
}

func seedUser(t *testing.T, store repositories.Store, email string) *models.User {
	t.Helper()
	user := &models.User{
		Username:  email,
		Email:     email,
		FirstName: "Jane",
		LastName:  "Doe",
		IsActive:  true,
	}
	require.NoError(t, store.Users().Create(user))
	return user
}

func color(value string) models.Variation {
	return models.Variation{Category: models.VariationColor, Value: value}
}

func size(value string) models.Variation {
	return models.Variation{Category: models.VariationSize, Value: value}
}

// RecordingNotifier keeps every notification it is given.
type RecordingNotifier struct {
	Messages []notify.Message
	Err      error
}

func (n *RecordingNotifier) Notify(ctx context.Context, msg notify.Message) error {
	n.Messages = append(n.Messages, msg)
	return n.Err
}
