// Package identity supplies the identifiers the import pipeline would
// otherwise pull from ambient randomness. Handing them out through an
// injectable Provider keeps variant-SKU synthesis deterministic and lets
// tests assert exact outcomes.
package identity

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Provider hands out batch identifiers and synthesized variant SKUs.
type Provider interface {
	// BatchID returns the identifier for one import run.
	BatchID() string

	// VariantSKU synthesizes a SKU for the n-th variant (1-based) of a
	// product whose feed row carried no SKU of its own. Callers collision
	// check the result against the store and re-call with a higher n until
	// a free SKU is found, so the synthesis itself stays a pure function.
	VariantSKU(productSKU string, n int) string
}

// Default is a deterministic Provider: synthesized SKUs are derived from the
// product SKU and the variant ordinal, so replaying the same feed yields the
// same SKUs and therefore idempotent upserts.
type Default struct{}

func (Default) BatchID() string { return uuid.NewString() }

func (Default) VariantSKU(productSKU string, n int) string {
	return fmt.Sprintf("%s-V%d", productSKU, n)
}

// Random synthesizes SKUs with a short random suffix. Kept for feeds whose
// product SKUs are themselves unstable between exports; note that replays of
// such feeds create new variants rather than updating existing ones.
type Random struct{}

func (Random) BatchID() string { return uuid.NewString() }

func (Random) VariantSKU(productSKU string, _ int) string {
	return productSKU + "-" + uuid.NewString()[:8]
}

// Fixed is a test Provider with predictable batch IDs.
type Fixed struct {
	Prefix string
	seq    atomic.Int64
}

func (f *Fixed) BatchID() string {
	return fmt.Sprintf("%s-%d", f.Prefix, f.seq.Add(1))
}

func (f *Fixed) VariantSKU(productSKU string, n int) string {
	return fmt.Sprintf("%s-V%d", productSKU, n)
}
