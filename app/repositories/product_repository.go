package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/vastra/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository handles database operations for Product and the
// product-scoped link tables (category joins, dynamic filter tags).
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository returns a repository bound to db, which may be a
// transaction handle — the reconciler rebinds one per unit of work.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByIdentity looks a product up by vendor external id first, falling
// back to SKU, among non-deleted rows. Returns gorm.ErrRecordNotFound when
// neither key matches.
func (r *ProductRepository) FindByIdentity(ctx context.Context, externalID, sku string) (models.Product, error) {
	var product models.Product

	if externalID != "" {
		err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&product).Error
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return product, fmt.Errorf("repositories: product by external id %q: %w", externalID, err)
		}
	}

	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return product, fmt.Errorf("repositories: product by sku %q: %w", sku, err)
	}
	return product, err
}

// CreateIdempotent inserts product, or adopts the existing row when another
// worker got there first: insert-on-conflict-do-nothing keyed on SKU, then
// a re-select of the winner when no row was written. This is atomic where
// the dialect supports it, unlike check-then-insert.
func (r *ProductRepository) CreateIdempotent(ctx context.Context, product *models.Product) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "sku"}}, DoNothing: true}).
		Create(product)
	if res.Error != nil {
		return false, fmt.Errorf("repositories: create product %q: %w", product.SKU, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	if err := r.db.WithContext(ctx).Where("sku = ?", product.SKU).First(product).Error; err != nil {
		return false, fmt.Errorf("repositories: re-select product %q: %w", product.SKU, err)
	}
	return false, nil
}

// Update persists changes to an existing product.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("repositories: update product %d: %w", product.ID, err)
	}
	return nil
}

// LinkCategory ensures exactly one join row exists between product and
// category. A duplicate-key error from the unique pair index means a
// concurrent worker or an earlier import already linked them — reported as
// created=false, never as an error.
func (r *ProductRepository) LinkCategory(ctx context.Context, productID, categoryID uint) (bool, error) {
	var existing models.ProductCategory
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND category_id = ?", productID, categoryID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("repositories: lookup category link: %w", err)
	}

	link := models.ProductCategory{ProductID: productID, CategoryID: categoryID}
	if err := r.db.WithContext(ctx).Create(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("repositories: link category: %w", err)
	}
	return true, nil
}

// EnsureFilter ensures one dynamic filter tag exists per (product, type,
// value), with the same duplicate-key tolerance as LinkCategory.
func (r *ProductRepository) EnsureFilter(ctx context.Context, productID uint, filterType, value string) (bool, error) {
	if value == "" {
		return false, nil
	}

	var existing models.ProductFilter
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND type = ? AND value = ?", productID, filterType, value).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("repositories: lookup filter: %w", err)
	}

	filter := models.ProductFilter{ProductID: productID, Type: filterType, Value: value}
	if err := r.db.WithContext(ctx).Create(&filter).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("repositories: create filter: %w", err)
	}
	return true, nil
}
