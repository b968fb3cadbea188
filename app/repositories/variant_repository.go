package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/vastra/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VariantRepository handles database operations for Variant and the
// append-only inventory ledger.
type VariantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

// FindBySKU looks a variant up by (SKU, product). Returns
// gorm.ErrRecordNotFound when absent.
func (r *VariantRepository) FindBySKU(ctx context.Context, sku string, productID uint) (models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).
		Where("sku = ? AND product_id = ?", sku, productID).
		First(&variant).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return variant, fmt.Errorf("repositories: variant by sku %q: %w", sku, err)
	}
	return variant, err
}

// SKUExists reports whether any variant (or product) already claims sku.
// The identity provider's synthesized SKUs are collision checked through
// this before use.
func (r *VariantRepository) SKUExists(ctx context.Context, sku string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Variant{}).Where("sku = ?", sku).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("repositories: count variant sku %q: %w", sku, err)
	}
	if n > 0 {
		return true, nil
	}

	err = r.db.WithContext(ctx).Model(&models.Product{}).Where("sku = ?", sku).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("repositories: count product sku %q: %w", sku, err)
	}
	return n > 0, nil
}

// CreateIdempotent inserts variant, or adopts the row a concurrent worker
// inserted first (conflict on SKU, do nothing, re-select).
func (r *VariantRepository) CreateIdempotent(ctx context.Context, variant *models.Variant) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "sku"}}, DoNothing: true}).
		Create(variant)
	if res.Error != nil {
		return false, fmt.Errorf("repositories: create variant %q: %w", variant.SKU, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	err := r.db.WithContext(ctx).
		Where("sku = ? AND product_id = ?", variant.SKU, variant.ProductID).
		First(variant).Error
	if err != nil {
		return false, fmt.Errorf("repositories: re-select variant %q: %w", variant.SKU, err)
	}
	return false, nil
}

// Update persists changes to an existing variant.
func (r *VariantRepository) Update(ctx context.Context, variant *models.Variant) error {
	if err := r.db.WithContext(ctx).Save(variant).Error; err != nil {
		return fmt.Errorf("repositories: update variant %d: %w", variant.ID, err)
	}
	return nil
}

// AppendMovement writes one entry to the inventory ledger. The ledger is
// append-only; there is no update or delete counterpart on purpose.
func (r *VariantRepository) AppendMovement(ctx context.Context, variantID uint, delta int, reason string) error {
	movement := models.InventoryMovement{
		VariantID:     variantID,
		QuantityDelta: delta,
		Reason:        reason,
	}
	if err := r.db.WithContext(ctx).Create(&movement).Error; err != nil {
		return fmt.Errorf("repositories: append movement for variant %d: %w", variantID, err)
	}
	return nil
}

// MovementCount returns the number of ledger entries for a variant.
func (r *VariantRepository) MovementCount(ctx context.Context, variantID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.InventoryMovement{}).
		Where("variant_id = ?", variantID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("repositories: count movements: %w", err)
	}
	return n, nil
}
