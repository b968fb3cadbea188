package repositories_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/vastra/app/models"
)

// newTestDB opens a throwaway sqlite database with the full catalog schema.
// A file in t.TempDir() rather than :memory: so concurrent goroutines share
// one database, with a busy timeout standing in for real lock waits.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "catalog.db") + "?_busy_timeout=10000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Variant{},
		&models.InventoryMovement{},
		&models.Media{},
		&models.ProductCategory{},
		&models.ProductFilter{},
	))
	return db
}
