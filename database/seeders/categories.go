package seeders

import (
	"context"

	"github.com/shashiranjanraj/vastra/app/repositories"
	"gorm.io/gorm"
)

func init() {
	Register("categories", SeedCategories)
}

// SeedCategories plants the canonical top-level departments so browse pages
// have stable roots before the first feed lands. Resolve is find-or-create,
// so reseeding is harmless.
func SeedCategories(db *gorm.DB) error {
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	paths := []string{
		"Women > Clothing",
		"Women > Shoes",
		"Women > Accessories",
		"Men > Clothing",
		"Men > Shoes",
		"Men > Accessories",
		"Kids",
	}
	for _, p := range paths {
		if _, err := repo.Resolve(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
