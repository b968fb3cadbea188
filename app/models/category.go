package models

import "gorm.io/gorm"

// Category is one node of the catalog tree. The tree is stored twice over:
// as a nested set (Lft/Rgt intervals, subtree = one range scan) and as a
// materialized Path ("women/dresses/mini", unique catalog-wide). A is an
// ancestor of B iff A.Lft < B.Lft && B.Rgt < A.Rgt.
type Category struct {
	gorm.Model
	Name     string `gorm:"size:255;not null" json:"name"`
	Slug     string `gorm:"size:255;not null;index:idx_categories_parent_slug,unique" json:"slug"`
	ParentID *uint  `gorm:"index:idx_categories_parent_slug,unique" json:"parent_id"`
	Path     string `gorm:"size:500;not null;uniqueIndex" json:"path"`
	Lft      int    `gorm:"not null;index" json:"lft"`
	Rgt      int    `gorm:"not null;index" json:"rgt"`
}

// IsAncestorOf reports nested-set containment.
func (c Category) IsAncestorOf(other Category) bool {
	return c.Lft < other.Lft && other.Rgt < c.Rgt
}

// ProductCategory links a product to a category. The unique pair constraint
// is what makes concurrent link attempts idempotent.
type ProductCategory struct {
	ID         uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  uint `gorm:"not null;index:idx_product_category,unique" json:"product_id"`
	CategoryID uint `gorm:"not null;index:idx_product_category,unique" json:"category_id"`
}
