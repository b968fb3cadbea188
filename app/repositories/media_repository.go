package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/vastra/app/models"
	"gorm.io/gorm"
)

// MediaRepository handles database operations for Media.
type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// EnsureProductImage returns the media row for a product-level image URL,
// inserting it only when no row anywhere in the catalog already carries the
// URL. Product-level dedupe is global: the same asset may serve many
// products, and the first import owns the row.
func (r *MediaRepository) EnsureProductImage(ctx context.Context, productID uint, url string) (models.Media, bool, error) {
	var existing models.Media
	err := r.db.WithContext(ctx).
		Where("url = ? AND variant_id IS NULL", url).
		First(&existing).Error
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return existing, false, fmt.Errorf("repositories: lookup product media %q: %w", url, err)
	}

	media := models.Media{ProductID: productID, URL: url, Type: models.MediaTypeImage}
	if err := r.db.WithContext(ctx).Create(&media).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.reselectProductImage(ctx, url)
		}
		return media, false, fmt.Errorf("repositories: create product media %q: %w", url, err)
	}
	return media, true, nil
}

// EnsureVariantImage returns the media row for (url, variant), inserting it
// when absent. The composite unique index on (url, variant_id) makes the
// insert race-safe; losing the race means adopting the winner.
func (r *MediaRepository) EnsureVariantImage(ctx context.Context, productID, variantID uint, url string) (models.Media, bool, error) {
	var existing models.Media
	err := r.db.WithContext(ctx).
		Where("url = ? AND variant_id = ?", url, variantID).
		First(&existing).Error
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return existing, false, fmt.Errorf("repositories: lookup variant media %q: %w", url, err)
	}

	media := models.Media{ProductID: productID, VariantID: &variantID, URL: url, Type: models.MediaTypeImage}
	if err := r.db.WithContext(ctx).Create(&media).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = r.db.WithContext(ctx).
				Where("url = ? AND variant_id = ?", url, variantID).
				First(&media).Error
			if err != nil {
				return media, false, fmt.Errorf("repositories: re-select variant media %q: %w", url, err)
			}
			return media, false, nil
		}
		return media, false, fmt.Errorf("repositories: create variant media %q: %w", url, err)
	}
	return media, true, nil
}

func (r *MediaRepository) reselectProductImage(ctx context.Context, url string) (models.Media, bool, error) {
	var media models.Media
	err := r.db.WithContext(ctx).
		Where("url = ? AND variant_id IS NULL", url).
		First(&media).Error
	if err != nil {
		return media, false, fmt.Errorf("repositories: re-select product media %q: %w", url, err)
	}
	return media, false, nil
}
