package services_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/vastra/app/models"
	"github.com/shashiranjanraj/vastra/app/services"
	"github.com/shashiranjanraj/vastra/pkg/identity"
	"github.com/shashiranjanraj/vastra/pkg/storage"
)

const smallFeed = "sku,name,brand,category_path,price,stock\n" +
	"TS-1,Cotton Tee,Acme,Men > Tops,19.99,5\n" +
	"TS-2,Linen Shirt,Acme,Men > Tops,39.99,2\n" +
	"TS-3,Silk Scarf,Acme,Women > Accessories,24.99,0\n"

func TestImportEndToEnd(t *testing.T) {
	db := newTestDB(t)
	disk := storage.NewLocal(t.TempDir())
	imp := services.NewImporter(db, &identity.Fixed{Prefix: "batch"}, disk, "import-errors")

	summary, err := imp.Import(context.Background(), strings.NewReader(smallFeed), services.ImportOptions{
		Profile: services.FeedProfile{Name: "default", CurrencyRate: 1},
		Workers: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "batch-1", summary.BatchID)
	assert.Equal(t, int64(3), summary.Processed)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, summary.ErrorLog, "clean batch writes no error file")

	assert.Equal(t, int64(3), count(t, db, &models.Product{}))
	assert.Equal(t, int64(3), count(t, db, &models.Variant{}))
	// Men, Tops, Women, Accessories.
	assert.Equal(t, int64(4), count(t, db, &models.Category{}))
	// Ledger entries only for positive initial stock.
	assert.Equal(t, int64(2), count(t, db, &models.InventoryMovement{}))
}

func TestImportIsolatesFailedUnits(t *testing.T) {
	db := newTestDB(t)
	disk := storage.NewLocal(t.TempDir())
	imp := services.NewImporter(db, &identity.Fixed{Prefix: "batch"}, disk, "import-errors")

	feed := "sku,name,price\n" +
		"OK-1,Good Row,10.00\n" +
		",Missing SKU,10.00\n" +
		"OK-2,Another Good Row,not-a-price\n" +
		"OK-3,Last Good Row,12.50\n"

	summary, err := imp.Import(context.Background(), strings.NewReader(feed), services.ImportOptions{
		Profile: services.FeedProfile{Name: "default", CurrencyRate: 1},
		Workers: 2,
	})
	require.NoError(t, err, "unit failures never fail the batch")
	assert.Equal(t, int64(2), summary.Processed)
	assert.Equal(t, int64(2), summary.Failed)
	require.NotEmpty(t, summary.ErrorLog)

	// The good rows landed.
	assert.Equal(t, int64(2), count(t, db, &models.Product{}))

	// The error file is JSON lines with enough context to fix the feed.
	raw, err := disk.Get(summary.ErrorLog)
	require.NoError(t, err)

	var lines int
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		var rec struct {
			BatchID string            `json:"batch_id"`
			Unit    string            `json:"unit"`
			Line    int               `json:"line"`
			Error   string            `json:"error"`
			Sample  map[string]string `json:"sample"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		assert.Equal(t, "batch-1", rec.BatchID)
		assert.NotEmpty(t, rec.Error)
		assert.NotZero(t, rec.Line)
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestImportReplayCreatesNothingNew(t *testing.T) {
	db := newTestDB(t)
	disk := storage.NewLocal(t.TempDir())
	imp := services.NewImporter(db, &identity.Fixed{Prefix: "batch"}, disk, "import-errors")
	opts := services.ImportOptions{
		Profile: services.FeedProfile{Name: "default", CurrencyRate: 1},
		Workers: 4,
	}

	_, err := imp.Import(context.Background(), strings.NewReader(smallFeed), opts)
	require.NoError(t, err)
	summary, err := imp.Import(context.Background(), strings.NewReader(smallFeed), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Processed)

	assert.Equal(t, int64(3), count(t, db, &models.Product{}))
	assert.Equal(t, int64(3), count(t, db, &models.Variant{}))
	assert.Equal(t, int64(4), count(t, db, &models.Category{}))
	assert.Equal(t, int64(2), count(t, db, &models.InventoryMovement{}))
}

func TestImportMultiRowFeed(t *testing.T) {
	db := newTestDB(t)
	disk := storage.NewLocal(t.TempDir())
	imp := services.NewImporter(db, &identity.Fixed{Prefix: "batch"}, disk, "import-errors")

	// Child rows of G1 are deliberately not contiguous with their parent.
	feed := "row_type,group_id,sku,name,price,stock,size\n" +
		"product,G1,TS-1,Cotton Tee,0,,\n" +
		"product,G2,DR-1,Wrap Dress,0,,\n" +
		"variant,G1,TS-1-M,,19.99,5,M\n" +
		"variant,G2,DR-1-S,,49.00,1,S\n" +
		"variant,G1,TS-1-L,,19.99,2,L\n"

	summary, err := imp.Import(context.Background(), strings.NewReader(feed), services.ImportOptions{
		Profile: services.FeedProfile{
			Name: "grouped", CurrencyRate: 1,
			MultiRow: true, TypeColumn: "row_type", ParentValue: "product", GroupColumn: "group_id",
		},
		Workers: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Processed, "one unit per group")
	assert.Zero(t, summary.Failed)

	assert.Equal(t, int64(2), count(t, db, &models.Product{}))
	assert.Equal(t, int64(3), count(t, db, &models.Variant{}))

	var tee models.Product
	require.NoError(t, db.Where("sku = ?", "TS-1").First(&tee).Error)
	var teeVariants int64
	require.NoError(t, db.Model(&models.Variant{}).Where("product_id = ?", tee.ID).Count(&teeVariants).Error)
	assert.Equal(t, int64(2), teeVariants)
}

func TestImportEmptyFeedFails(t *testing.T) {
	db := newTestDB(t)
	imp := services.NewImporter(db, nil, storage.NewLocal(t.TempDir()), "import-errors")

	_, err := imp.Import(context.Background(), strings.NewReader(""), services.ImportOptions{
		Profile: services.FeedProfile{Name: "default", CurrencyRate: 1},
	})
	require.Error(t, err, "a feed without a header is systemic, not per-unit")
}
