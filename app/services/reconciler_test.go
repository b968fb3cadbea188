package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/vastra/app/models"
	"github.com/shashiranjanraj/vastra/app/services"
	"github.com/shashiranjanraj/vastra/pkg/identity"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func teeRecord() services.NormalizedRecord {
	return services.NormalizedRecord{
		ExternalID:   "V-100",
		SKU:          "TS-1",
		Name:         "Cotton Tee",
		Brand:        "Acme",
		CategoryPath: "Women > Tops > T-Shirts",
		Attributes:   map[string]string{"material": "cotton"},
		Images:       []string{"https://cdn.example.com/tee.jpg"},
		Variants: []services.NormalizedVariant{
			{SKU: "TS-1-BLK-M", Price: price("19.99"), Stock: 5, Color: "Black", Size: "M"},
			{SKU: "TS-1-BLK-L", Price: price("19.99"), Stock: 0, Color: "Black", Size: "L"},
		},
	}
}

func TestReconcileCreatesEverything(t *testing.T) {
	db := newTestDB(t)
	rec := services.NewReconciler(db, identity.Default{})
	ctx := context.Background()

	result, err := rec.Reconcile(ctx, teeRecord())
	require.NoError(t, err)
	assert.True(t, result.ProductCreated)
	require.Len(t, result.Variants, 2)
	assert.True(t, result.Variants[0].Created)
	assert.True(t, result.Variants[1].Created)

	// Category chain resolved to the leaf.
	var leaf models.Category
	require.NoError(t, db.Where("path = ?", "women/tops/t-shirts").First(&leaf).Error)
	assert.Equal(t, leaf.ID, result.CategoryID)

	var product models.Product
	require.NoError(t, db.First(&product, result.ProductID).Error)
	assert.Equal(t, "Cotton Tee", product.Name)
	assert.True(t, product.Active, "unspecified active defaults to true")
	require.NotNil(t, product.CategoryID)
	assert.Equal(t, leaf.ID, *product.CategoryID)

	// Ledger: exactly one entry, for the variant with positive stock.
	assert.Equal(t, int64(1), count(t, db, &models.InventoryMovement{}))
	var movement models.InventoryMovement
	require.NoError(t, db.First(&movement).Error)
	assert.Equal(t, result.Variants[0].VariantID, movement.VariantID)
	assert.Equal(t, 5, movement.QuantityDelta)
	assert.Equal(t, models.ReasonInitialImport, movement.Reason)

	// Links and filter tags.
	assert.Equal(t, int64(1), count(t, db, &models.ProductCategory{}))
	assert.Equal(t, int64(3), count(t, db, &models.ProductFilter{}), "brand + color + size")
	assert.Equal(t, int64(1), count(t, db, &models.Media{}))
}

func TestReconcileReplayIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	rec := services.NewReconciler(db, identity.Default{})
	ctx := context.Background()

	first, err := rec.Reconcile(ctx, teeRecord())
	require.NoError(t, err)

	second, err := rec.Reconcile(ctx, teeRecord())
	require.NoError(t, err)
	assert.False(t, second.ProductCreated)
	assert.Equal(t, first.ProductID, second.ProductID)
	for i := range second.Variants {
		assert.False(t, second.Variants[i].Created)
		assert.Equal(t, first.Variants[i].VariantID, second.Variants[i].VariantID)
	}

	assert.Equal(t, int64(1), count(t, db, &models.Product{}))
	assert.Equal(t, int64(2), count(t, db, &models.Variant{}))
	assert.Equal(t, int64(3), count(t, db, &models.Category{}))
	assert.Equal(t, int64(1), count(t, db, &models.Media{}))
	assert.Equal(t, int64(1), count(t, db, &models.ProductCategory{}))
	assert.Equal(t, int64(1), count(t, db, &models.InventoryMovement{}), "replay never double-counts stock")
}

func TestReconcileUpdatesInPlace(t *testing.T) {
	db := newTestDB(t)
	rec := services.NewReconciler(db, identity.Default{})
	ctx := context.Background()

	_, err := rec.Reconcile(ctx, teeRecord())
	require.NoError(t, err)

	changed := teeRecord()
	changed.Name = "Cotton Tee (2026)"
	changed.Variants[0].Price = price("17.49")
	changed.Variants[0].Stock = 50

	result, err := rec.Reconcile(ctx, changed)
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, db.First(&product, result.ProductID).Error)
	assert.Equal(t, "Cotton Tee (2026)", product.Name)

	var variant models.Variant
	require.NoError(t, db.Where("sku = ?", "TS-1-BLK-M").First(&variant).Error)
	assert.True(t, variant.Price.Equal(price("17.49")))
	assert.Equal(t, 50, variant.Stock)

	// Stock updates adjust the variant row only, never the ledger.
	assert.Equal(t, int64(1), count(t, db, &models.InventoryMovement{}))
}

func TestReconcileSynthesizesVariantSKUs(t *testing.T) {
	db := newTestDB(t)
	rec := services.NewReconciler(db, identity.Default{})
	ctx := context.Background()

	record := services.NormalizedRecord{
		SKU:  "DR-9",
		Name: "Wrap Dress",
		Variants: []services.NormalizedVariant{
			{Price: price("49.00"), Stock: 2, Size: "S"},
			{Price: price("49.00"), Stock: 2, Size: "M"},
		},
	}

	result, err := rec.Reconcile(ctx, record)
	require.NoError(t, err)
	require.Len(t, result.Variants, 2)
	assert.Equal(t, "DR-9-V1", result.Variants[0].SKU)
	assert.Equal(t, "DR-9-V2", result.Variants[1].SKU)

	// Replay derives the same SKUs and reuses the rows.
	again, err := rec.Reconcile(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, result.Variants[0].VariantID, again.Variants[0].VariantID)
	assert.Equal(t, result.Variants[1].VariantID, again.Variants[1].VariantID)
	assert.Equal(t, int64(2), count(t, db, &models.Variant{}))
}

func TestReconcileSynthesisSkipsTakenSKUs(t *testing.T) {
	db := newTestDB(t)
	rec := services.NewReconciler(db, identity.Default{})
	ctx := context.Background()

	// Another product already owns what would be DR-9-V1.
	other, err := rec.Reconcile(ctx, services.NormalizedRecord{
		SKU:  "OTHER-1",
		Name: "Other",
		Variants: []services.NormalizedVariant{
			{SKU: "DR-9-V1", Price: price("5.00")},
		},
	})
	require.NoError(t, err)

	result, err := rec.Reconcile(ctx, services.NormalizedRecord{
		SKU:  "DR-9",
		Name: "Wrap Dress",
		Variants: []services.NormalizedVariant{
			{Price: price("49.00"), Size: "S"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "DR-9-V2", result.Variants[0].SKU, "taken candidate advances the ordinal")
	assert.NotEqual(t, other.Variants[0].VariantID, result.Variants[0].VariantID)
}

func TestReconcileUnitIsAtomic(t *testing.T) {
	db := newTestDB(t)
	rec := services.NewReconciler(db, identity.Default{})
	ctx := context.Background()

	// Seed a variant SKU owned by another product.
	_, err := rec.Reconcile(ctx, services.NormalizedRecord{
		SKU:  "P-EXISTING",
		Name: "Existing",
		Variants: []services.NormalizedVariant{
			{SKU: "SHARED-SKU", Price: price("5.00")},
		},
	})
	require.NoError(t, err)

	// A unit whose explicit variant SKU belongs to a different product
	// cannot be reconciled; its product insert must roll back with it.
	_, err = rec.Reconcile(ctx, services.NormalizedRecord{
		SKU:  "P-NEW",
		Name: "New Product",
		Variants: []services.NormalizedVariant{
			{SKU: "SHARED-SKU", Price: price("9.00")},
		},
	})
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&models.Product{}).Where("sku = ?", "P-NEW").Count(&n).Error)
	assert.Zero(t, n, "failed unit leaves nothing behind")
}

func TestReconcileSharedMediaAcrossProducts(t *testing.T) {
	db := newTestDB(t)
	rec := services.NewReconciler(db, identity.Default{})
	ctx := context.Background()

	a := teeRecord()
	b := teeRecord()
	b.ExternalID = "V-200"
	b.SKU = "TS-2"
	b.Variants = []services.NormalizedVariant{{SKU: "TS-2-V1", Price: price("9.99")}}

	_, err := rec.Reconcile(ctx, a)
	require.NoError(t, err)
	_, err = rec.Reconcile(ctx, b)
	require.NoError(t, err)

	// Both products reference the same gallery URL; one media row exists.
	assert.Equal(t, int64(1), count(t, db, &models.Media{}))
}
