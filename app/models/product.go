package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AttrMap is an open string→string attribute bag stored as a JSON column.
type AttrMap map[string]string

func (m AttrMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("models: marshal attrs: %w", err)
	}
	return string(data), nil
}

func (m *AttrMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("models: scan attrs: unsupported type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// Product is the catalog product. SKU is the primary identity key: unique
// catalog-wide, never rewritten once assigned, so repeated imports of the
// same feed update rows in place instead of duplicating them.
type Product struct {
	gorm.Model
	ExternalID  string  `gorm:"size:100;index"         json:"external_id"`
	SKU         string  `gorm:"size:100;not null;uniqueIndex" json:"sku"`
	Name        string  `gorm:"size:255;not null;index" json:"name"`
	Description string  `gorm:"type:text"              json:"description"`
	Brand       string  `gorm:"size:255;index"         json:"brand"`
	CategoryID  *uint   `gorm:"index"                  json:"category_id"` // default category
	Attributes  AttrMap `gorm:"type:text"              json:"attributes"`
	Active      bool    `gorm:"not null;default:true"  json:"active"`
}

// Variant is one purchasable SKU of a product.
type Variant struct {
	gorm.Model
	ProductID      uint            `gorm:"not null;index"                json:"product_id"`
	SKU            string          `gorm:"size:100;not null;uniqueIndex" json:"sku"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null"   json:"price"`
	CompareAtPrice decimal.Decimal `gorm:"type:decimal(10,2)"            json:"compare_at_price"`
	Stock          int             `gorm:"not null;default:0"            json:"stock"`
	Color          string          `gorm:"size:100"                      json:"color"`
	Size           string          `gorm:"size:100"                      json:"size"`
}

// Filter types derived from imported attributes.
const (
	FilterBrand = "brand"
	FilterColor = "color"
	FilterSize  = "size"
)

// ProductFilter is a dynamic storefront filter tag derived at import time.
// Unique per (product, type, value).
type ProductFilter struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"not null;index:idx_product_filter,unique" json:"product_id"`
	Type      string `gorm:"size:50;not null;index:idx_product_filter,unique" json:"type"`
	Value     string `gorm:"size:255;not null;index:idx_product_filter,unique" json:"value"`
}
