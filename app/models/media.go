package models

import "gorm.io/gorm"

// Media types.
const (
	MediaTypeImage = "image"
)

// Media is one media asset. VariantID nil means the asset hangs off the
// product gallery; those are deduplicated globally on URL, since the same
// asset legitimately serves several products. Variant images are
// deduplicated per (URL, variant) via the composite unique index. The
// composite index alone cannot hold the product-level invariant: SQL treats
// NULL variant ids as distinct, so gallery rows get their own partial unique
// index on url where variant_id IS NULL and concurrent inserts of the same
// URL collide there instead of both landing.
type Media struct {
	gorm.Model
	ProductID uint    `gorm:"not null;index" json:"product_id"`
	VariantID *uint   `gorm:"index:idx_media_url_variant,unique" json:"variant_id"`
	URL       string  `gorm:"size:500;not null;index:idx_media_url_variant,unique;index:idx_media_product_url,unique,where:variant_id IS NULL;index" json:"url"`
	Type      string  `gorm:"size:50;not null;default:image" json:"type"`
	Meta      AttrMap `gorm:"type:text" json:"meta"`
}
