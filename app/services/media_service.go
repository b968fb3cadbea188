package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/vastra/app/repositories"
	"gorm.io/gorm"
)

// MediaService attaches feed image URLs to their owners without ever
// duplicating a media row. Variant images dedupe per (URL, variant) —
// variant photos are expected to differ per SKU — while product gallery
// images dedupe globally on URL, since vendors reuse the same asset across
// products.
type MediaService struct {
	media *repositories.MediaRepository
}

// NewMediaService returns a service bound to db, which may be a transaction
// handle.
func NewMediaService(db *gorm.DB) *MediaService {
	return &MediaService{media: repositories.NewMediaRepository(db)}
}

// AttachProductImages ensures one media row per distinct URL for a product
// gallery and returns the media ids in input order.
func (s *MediaService) AttachProductImages(ctx context.Context, productID uint, urls []string) ([]uint, error) {
	ids := make([]uint, 0, len(urls))
	for _, url := range urls {
		media, _, err := s.media.EnsureProductImage(ctx, productID, url)
		if err != nil {
			return ids, fmt.Errorf("media: attach product image: %w", err)
		}
		ids = append(ids, media.ID)
	}
	return ids, nil
}

// AttachVariantImages ensures one media row per (URL, variant) and returns
// the media ids in input order.
func (s *MediaService) AttachVariantImages(ctx context.Context, productID, variantID uint, urls []string) ([]uint, error) {
	ids := make([]uint, 0, len(urls))
	for _, url := range urls {
		media, _, err := s.media.EnsureVariantImage(ctx, productID, variantID, url)
		if err != nil {
			return ids, fmt.Errorf("media: attach variant image: %w", err)
		}
		ids = append(ids, media.ID)
	}
	return ids, nil
}
