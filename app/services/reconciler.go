package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/vastra/app/models"
	"github.com/shashiranjanraj/vastra/app/repositories"
	"github.com/shashiranjanraj/vastra/pkg/identity"
	"github.com/shashiranjanraj/vastra/pkg/logger"
	"gorm.io/gorm"
)

// maxSKUAttempts bounds synthesized-SKU collision probing per variant.
const maxSKUAttempts = 100

// VariantResult reports what happened to one variant of a unit.
type VariantResult struct {
	VariantID uint   `json:"variant_id"`
	SKU       string `json:"sku"`
	Created   bool   `json:"created"` // false = updated in place
}

// ReconcileResult reports what one unit of work did to the catalog.
type ReconcileResult struct {
	ProductID      uint            `json:"product_id"`
	ProductCreated bool            `json:"product_created"`
	CategoryID     uint            `json:"category_id,omitempty"`
	Variants       []VariantResult `json:"variants"`
}

// Reconciler folds normalized records into the catalog without duplicating
// products, variants, categories or media. Each unit of work runs in one
// transaction: either all of its writes land or none do.
type Reconciler struct {
	db  *gorm.DB
	ids identity.Provider
}

func NewReconciler(db *gorm.DB, ids identity.Provider) *Reconciler {
	if ids == nil {
		ids = identity.Default{}
	}
	return &Reconciler{db: db, ids: ids}
}

// Reconcile applies one normalized record. Category nodes are resolved
// before the unit transaction opens: they are find-or-create and shared
// across units, so their creation legitimately survives a unit rollback.
// Everything else — product, variants, ledger, media, links, filters — is
// all-or-nothing.
func (s *Reconciler) Reconcile(ctx context.Context, record NormalizedRecord) (ReconcileResult, error) {
	var result ReconcileResult

	if record.CategoryPath != "" {
		categoryID, err := repositories.NewCategoryRepository(s.db).Resolve(ctx, record.CategoryPath)
		if err != nil {
			return result, fmt.Errorf("reconcile %q: resolve category: %w", record.SKU, err)
		}
		result.CategoryID = categoryID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := repositories.NewProductRepository(tx)
		variants := repositories.NewVariantRepository(tx)
		media := NewMediaService(tx)

		product, created, err := s.reconcileProduct(ctx, products, record, result.CategoryID)
		if err != nil {
			return err
		}
		result.ProductID = product.ID
		result.ProductCreated = created

		if _, err := media.AttachProductImages(ctx, product.ID, record.Images); err != nil {
			return err
		}

		for i, nv := range record.Variants {
			vr, err := s.reconcileVariant(ctx, variants, media, product, nv, i+1)
			if err != nil {
				return err
			}
			result.Variants = append(result.Variants, vr)
		}

		if result.CategoryID != 0 {
			if _, err := products.LinkCategory(ctx, product.ID, result.CategoryID); err != nil {
				return err
			}
		}

		return s.reconcileFilters(ctx, products, product.ID, record)
	})
	if err != nil {
		result.Variants = nil
		return result, err
	}

	logger.WithCtx(ctx).Debug("unit reconciled",
		"sku", record.SKU, "product_created", result.ProductCreated, "variants", len(result.Variants))
	return result, nil
}

// reconcileProduct finds the product by external id or SKU and updates its
// descriptive fields in place, or inserts it. Insertion is an atomic
// insert-or-adopt on the SKU key; adopting a concurrent winner still applies
// this record's fields, matching the found-and-update path.
func (s *Reconciler) reconcileProduct(ctx context.Context, products *repositories.ProductRepository, record NormalizedRecord, categoryID uint) (models.Product, bool, error) {
	apply := func(p *models.Product) {
		p.ExternalID = record.ExternalID
		p.Name = record.Name
		p.Description = record.Description
		p.Brand = record.Brand
		if len(record.Attributes) > 0 {
			p.Attributes = record.Attributes
		}
		if record.Active != nil {
			p.Active = *record.Active
		}
		if categoryID != 0 {
			id := categoryID
			p.CategoryID = &id
		}
	}

	product, err := products.FindByIdentity(ctx, record.ExternalID, record.SKU)
	if err == nil {
		apply(&product)
		if uerr := products.Update(ctx, &product); uerr != nil {
			return product, false, uerr
		}
		return product, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return product, false, err
	}

	product = models.Product{SKU: record.SKU, Active: true} // unspecified flags default to true
	apply(&product)

	created, err := products.CreateIdempotent(ctx, &product)
	if err != nil {
		return product, false, err
	}
	if !created {
		// Another worker inserted this SKU between our lookup and insert.
		apply(&product)
		if uerr := products.Update(ctx, &product); uerr != nil {
			return product, false, uerr
		}
	}
	return product, created, nil
}

// reconcileVariant finds the variant by (SKU, product) and updates mutable
// fields in place, or inserts it. Exactly one inventory ledger entry is
// written, at creation time, when initial stock is positive — never on
// update and never when the insert adopted a concurrent winner, so replays
// cannot double-count stock.
func (s *Reconciler) reconcileVariant(ctx context.Context, variants *repositories.VariantRepository, media *MediaService, product models.Product, nv NormalizedVariant, ordinal int) (VariantResult, error) {
	sku := nv.SKU
	if sku == "" {
		synthesized, err := s.synthesizeSKU(ctx, variants, product, ordinal)
		if err != nil {
			return VariantResult{}, err
		}
		sku = synthesized
	}

	apply := func(v *models.Variant) {
		v.Price = nv.Price
		v.CompareAtPrice = nv.CompareAtPrice
		v.Stock = nv.Stock
		v.Color = nv.Color
		v.Size = nv.Size
	}

	variant, err := variants.FindBySKU(ctx, sku, product.ID)
	created := false
	switch {
	case err == nil:
		apply(&variant)
		if uerr := variants.Update(ctx, &variant); uerr != nil {
			return VariantResult{}, uerr
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		variant = models.Variant{ProductID: product.ID, SKU: sku}
		apply(&variant)
		created, err = variants.CreateIdempotent(ctx, &variant)
		if err != nil {
			return VariantResult{}, err
		}
		if created && nv.Stock > 0 {
			if err := variants.AppendMovement(ctx, variant.ID, nv.Stock, models.ReasonInitialImport); err != nil {
				return VariantResult{}, err
			}
		}
		if !created {
			apply(&variant)
			if uerr := variants.Update(ctx, &variant); uerr != nil {
				return VariantResult{}, uerr
			}
		}
	default:
		return VariantResult{}, err
	}

	if _, err := media.AttachVariantImages(ctx, product.ID, variant.ID, nv.Images); err != nil {
		return VariantResult{}, err
	}

	return VariantResult{VariantID: variant.ID, SKU: variant.SKU, Created: created}, nil
}

// synthesizeSKU asks the identity provider for candidate SKUs until one is
// free or already belongs to a variant of this product (a replay of an
// earlier synthesis — reuse it, don't mint a sibling).
func (s *Reconciler) synthesizeSKU(ctx context.Context, variants *repositories.VariantRepository, product models.Product, ordinal int) (string, error) {
	for n := ordinal; n < ordinal+maxSKUAttempts; n++ {
		candidate := s.ids.VariantSKU(product.SKU, n)

		if _, err := variants.FindBySKU(ctx, candidate, product.ID); err == nil {
			return candidate, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}

		taken, err := variants.SKUExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("reconcile: no free synthesized sku for product %q after %d attempts",
		product.SKU, maxSKUAttempts)
}

// reconcileFilters derives the dynamic filter tags: brand, plus the first
// variant's color and size.
func (s *Reconciler) reconcileFilters(ctx context.Context, products *repositories.ProductRepository, productID uint, record NormalizedRecord) error {
	candidates := []struct{ filterType, value string }{
		{models.FilterBrand, record.Brand},
	}
	if len(record.Variants) > 0 {
		candidates = append(candidates,
			struct{ filterType, value string }{models.FilterColor, record.Variants[0].Color},
			struct{ filterType, value string }{models.FilterSize, record.Variants[0].Size},
		)
	}

	for _, c := range candidates {
		if _, err := products.EnsureFilter(ctx, productID, c.filterType, c.value); err != nil {
			return err
		}
	}
	return nil
}
