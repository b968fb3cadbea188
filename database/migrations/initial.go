package migrations

import (
	"github.com/shashiranjanraj/vastra/app/models"
	"github.com/shashiranjanraj/vastra/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260101000000_create_categories_table", &CreateCategoriesTable{})
	migration.Register("20260101000001_create_products_table", &CreateProductsTable{})
	migration.Register("20260101000002_create_variants_table", &CreateVariantsTable{})
	migration.Register("20260101000003_create_inventory_movements_table", &CreateInventoryMovementsTable{})
	migration.Register("20260101000004_create_media_table", &CreateMediaTable{})
	migration.Register("20260101000005_create_catalog_links", &CreateCatalogLinks{})
	migration.Register("20260101000006_create_feed_files_table", &CreateFeedFilesTable{})
}

// -------- 0000: categories --------

type CreateCategoriesTable struct{}

func (m *CreateCategoriesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Category{})
}

func (m *CreateCategoriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("categories")
}

// -------- 0001: products --------

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

// -------- 0002: variants --------

type CreateVariantsTable struct{}

func (m *CreateVariantsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Variant{})
}

func (m *CreateVariantsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("variants")
}

// -------- 0003: inventory movements --------

type CreateInventoryMovementsTable struct{}

func (m *CreateInventoryMovementsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.InventoryMovement{})
}

func (m *CreateInventoryMovementsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("inventory_movements")
}

// -------- 0004: media --------

type CreateMediaTable struct{}

func (m *CreateMediaTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Media{})
}

func (m *CreateMediaTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("media")
}

// -------- 0005: category and filter links --------

type CreateCatalogLinks struct{}

func (m *CreateCatalogLinks) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.ProductCategory{}, &models.ProductFilter{})
}

func (m *CreateCatalogLinks) Down(db *gorm.DB) error {
	if err := db.Migrator().DropTable("product_filters"); err != nil {
		return err
	}
	return db.Migrator().DropTable("product_categories")
}

// -------- 0006: feed files --------

type CreateFeedFilesTable struct{}

func (m *CreateFeedFilesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.FeedFile{})
}

func (m *CreateFeedFilesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("feed_files")
}
