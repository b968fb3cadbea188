package repositories_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/vastra/app/models"
	"github.com/shashiranjanraj/vastra/app/repositories"
)

func TestFindByIdentityPrefersExternalID(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewProductRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Product{ExternalID: "V-100", SKU: "TS-1", Name: "Tee"}).Error)
	require.NoError(t, db.Create(&models.Product{SKU: "TS-2", Name: "Other"}).Error)

	found, err := repo.FindByIdentity(ctx, "V-100", "TS-2")
	require.NoError(t, err)
	assert.Equal(t, "TS-1", found.SKU)

	// Unknown external id falls back to SKU.
	found, err = repo.FindByIdentity(ctx, "V-999", "TS-2")
	require.NoError(t, err)
	assert.Equal(t, "TS-2", found.SKU)

	_, err = repo.FindByIdentity(ctx, "", "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCreateIdempotentAdoptsExisting(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewProductRepository(db)
	ctx := context.Background()

	first := models.Product{SKU: "TS-1", Name: "Tee"}
	created, err := repo.CreateIdempotent(ctx, &first)
	require.NoError(t, err)
	assert.True(t, created)

	second := models.Product{SKU: "TS-1", Name: "Tee v2"}
	created, err = repo.CreateIdempotent(ctx, &second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID, "adoption re-selects the winner")

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLinkCategoryIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewProductRepository(db)
	ctx := context.Background()

	created, err := repo.LinkCategory(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.LinkCategory(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.ProductCategory{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureFilter(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewProductRepository(db)
	ctx := context.Background()

	created, err := repo.EnsureFilter(ctx, 1, models.FilterBrand, "Acme")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.EnsureFilter(ctx, 1, models.FilterBrand, "Acme")
	require.NoError(t, err)
	assert.False(t, created)

	// Empty values never create a tag.
	created, err = repo.EnsureFilter(ctx, 1, models.FilterColor, "")
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.ProductFilter{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
