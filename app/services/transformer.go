package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/vastra/pkg/feed"
	"github.com/shashiranjanraj/vastra/pkg/validate"
	"github.com/shopspring/decimal"
)

// Canonical record fields a FeedProfile can map vendor columns onto.
const (
	FieldExternalID     = "external_id"
	FieldSKU            = "sku"
	FieldName           = "name"
	FieldDescription    = "description"
	FieldBrand          = "brand"
	FieldCategoryPath   = "category_path"
	FieldPrice          = "price"
	FieldCompareAtPrice = "compare_at_price"
	FieldStock          = "stock"
	FieldColor          = "color"
	FieldSize           = "size"
	FieldImages         = "images"
	FieldActive         = "active"
)

// attrPrefix marks vendor columns copied verbatim into the open attribute
// map ("attr_material" → attributes["material"]).
const attrPrefix = "attr_"

// FeedProfile describes one vendor integration: which vendor column feeds
// each canonical field, how multi-row feeds discriminate parent and child
// rows, and the price adjustments for this vendor.
type FeedProfile struct {
	Name string

	// Columns maps canonical field name → vendor column name. Unmapped
	// fields fall back to the canonical name itself, so a well-behaved feed
	// needs no mapping at all.
	Columns map[string]string

	// MultiRow feeds carry a discriminator column: one parent row per
	// product and any number of child rows, grouped by shared external id
	// (rows need not be contiguous).
	MultiRow    bool
	TypeColumn  string // discriminator column, e.g. "row_type"
	ParentValue string // discriminator value marking the product row
	GroupColumn string // shared external id column for grouping

	// Price adjustments: vendor price × CurrencyRate × (1 + Markup/100).
	CurrencyRate  float64
	MarkupPercent float64
}

// column resolves the vendor column name for a canonical field.
func (p FeedProfile) column(field string) string {
	if c, ok := p.Columns[field]; ok {
		return c
	}
	return field
}

// NormalizedVariant is one purchasable variant extracted from a feed row.
type NormalizedVariant struct {
	SKU            string          `json:"sku"` // empty → synthesized during reconciliation
	Price          decimal.Decimal `json:"price"`
	CompareAtPrice decimal.Decimal `json:"compare_at_price"`
	Stock          int             `json:"stock" validate:"gte=0"`
	Color          string          `json:"color" validate:"max=100"`
	Size           string          `json:"size" validate:"max=100"`
	Images         []string        `json:"images"`
}

// NormalizedRecord is the vendor-independent shape every unit of work is
// reduced to before reconciliation.
type NormalizedRecord struct {
	ExternalID   string            `json:"external_id" validate:"max=100"`
	SKU          string            `json:"sku" validate:"required,max=100"`
	Name         string            `json:"name" validate:"required,max=255"`
	Description  string            `json:"description"`
	Brand        string            `json:"brand" validate:"max=255"`
	CategoryPath string            `json:"category_path"`
	Attributes   map[string]string `json:"attributes"`
	Active       *bool             `json:"active"` // nil = unspecified, defaults true
	Images       []string          `json:"images"` // product-level gallery
	Variants     []NormalizedVariant `json:"variants"`
}

// Transformer is the pure mapping from raw vendor rows to a
// NormalizedRecord. It holds no connections and touches no storage.
type Transformer struct {
	profile FeedProfile
}

func NewTransformer(profile FeedProfile) *Transformer {
	if profile.CurrencyRate <= 0 {
		profile.CurrencyRate = 1
	}
	return &Transformer{profile: profile}
}

// Transform maps one unit of work — a single row, or a parent row with its
// child rows — to the normalized shape. The returned error is a per-unit
// validation error; it never aborts the batch.
func (t *Transformer) Transform(rows []feed.Row) (NormalizedRecord, error) {
	if len(rows) == 0 {
		return NormalizedRecord{}, fmt.Errorf("transform: empty unit of work")
	}

	parent, children, err := t.splitUnit(rows)
	if err != nil {
		return NormalizedRecord{}, err
	}

	record := NormalizedRecord{
		ExternalID:   t.get(parent, FieldExternalID),
		SKU:          t.get(parent, FieldSKU),
		Name:         t.get(parent, FieldName),
		Description:  t.get(parent, FieldDescription),
		Brand:        t.get(parent, FieldBrand),
		CategoryPath: t.get(parent, FieldCategoryPath),
		Attributes:   t.attributes(parent),
		Active:       parseBool(t.get(parent, FieldActive)),
		Images:       splitImages(t.get(parent, FieldImages)),
	}

	if len(children) == 0 {
		// Single-row unit: the row is both the product and its only variant.
		variant, err := t.variantFrom(parent)
		if err != nil {
			return record, err
		}
		variant.Images = nil // already captured as the product gallery
		record.Variants = []NormalizedVariant{variant}
	} else {
		for _, child := range children {
			variant, err := t.variantFrom(child)
			if err != nil {
				return record, err
			}
			record.Variants = append(record.Variants, variant)
		}
	}

	if errs := validate.Struct(&record); validate.HasErrors(errs) {
		return record, fmt.Errorf("transform: invalid record %q: %v", record.SKU, errs)
	}
	for _, img := range record.Images {
		if !validate.URL(img) {
			return record, fmt.Errorf("transform: invalid image url %q", img)
		}
	}
	for i := range record.Variants {
		if errs := validate.Struct(&record.Variants[i]); validate.HasErrors(errs) {
			return record, fmt.Errorf("transform: invalid variant %d: %v", i, errs)
		}
		for _, img := range record.Variants[i].Images {
			if !validate.URL(img) {
				return record, fmt.Errorf("transform: invalid variant image url %q", img)
			}
		}
	}

	return record, nil
}

// splitUnit separates the parent row from child rows. Per-row profiles treat
// the single row as the parent; multi-row units must contain exactly one row
// whose discriminator matches ParentValue.
func (t *Transformer) splitUnit(rows []feed.Row) (feed.Row, []feed.Row, error) {
	if !t.profile.MultiRow {
		return rows[0], nil, nil
	}

	var parent *feed.Row
	var children []feed.Row
	for i, row := range rows {
		if strings.EqualFold(row.Get(t.profile.TypeColumn), t.profile.ParentValue) {
			if parent != nil {
				return feed.Row{}, nil, fmt.Errorf("transform: duplicate parent row at line %d", row.Line)
			}
			parent = &rows[i]
			continue
		}
		children = append(children, row)
	}
	if parent == nil {
		return feed.Row{}, nil, fmt.Errorf("transform: unit has %d rows but no parent row", len(rows))
	}
	return *parent, children, nil
}

func (t *Transformer) variantFrom(row feed.Row) (NormalizedVariant, error) {
	price, err := t.parsePrice(row, FieldPrice, true)
	if err != nil {
		return NormalizedVariant{}, err
	}
	compareAt, err := t.parsePrice(row, FieldCompareAtPrice, false)
	if err != nil {
		return NormalizedVariant{}, err
	}

	stock := 0
	if raw := t.get(row, FieldStock); raw != "" {
		stock, err = strconv.Atoi(raw)
		if err != nil {
			return NormalizedVariant{}, fmt.Errorf("transform: line %d: bad stock %q", row.Line, raw)
		}
	}

	return NormalizedVariant{
		SKU:            t.get(row, FieldSKU),
		Price:          price,
		CompareAtPrice: compareAt,
		Stock:          stock,
		Color:          t.get(row, FieldColor),
		Size:           t.get(row, FieldSize),
		Images:         splitImages(t.get(row, FieldImages)),
	}, nil
}

// parsePrice reads, parses and adjusts one price column. Vendor decimal
// commas are tolerated. The adjusted price is vendor price × currency rate
// × (1 + markup%), rounded to cents.
func (t *Transformer) parsePrice(row feed.Row, field string, required bool) (decimal.Decimal, error) {
	raw := t.get(row, field)
	if raw == "" {
		if required {
			return decimal.Zero, fmt.Errorf("transform: line %d: missing %s", row.Line, field)
		}
		return decimal.Zero, nil
	}

	cleaned := strings.ReplaceAll(strings.ReplaceAll(raw, " ", ""), ",", ".")
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("transform: line %d: bad %s %q", row.Line, field, raw)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("transform: line %d: negative %s %q", row.Line, field, raw)
	}

	adjusted := price.
		Mul(decimal.NewFromFloat(t.profile.CurrencyRate)).
		Mul(decimal.NewFromFloat(1 + t.profile.MarkupPercent/100))
	return adjusted.Round(2), nil
}

func (t *Transformer) get(row feed.Row, field string) string {
	return row.Get(t.profile.column(field))
}

// attributes copies every attr_-prefixed vendor column into the open map.
func (t *Transformer) attributes(row feed.Row) map[string]string {
	var attrs map[string]string
	for name, value := range row.Map() {
		key, found := strings.CutPrefix(name, attrPrefix)
		if !found || key == "" || value == "" {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[key] = value
	}
	return attrs
}

// splitImages splits a multi-image cell on the common separators.
func splitImages(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '|' || r == ' ' })
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseBool maps vendor truthiness to *bool; empty means unspecified.
func parseBool(raw string) *bool {
	switch strings.ToLower(raw) {
	case "":
		return nil
	case "1", "true", "yes", "y", "active":
		b := true
		return &b
	default:
		b := false
		return &b
	}
}
