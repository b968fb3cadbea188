package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shashiranjanraj/vastra/config"
	"github.com/shashiranjanraj/vastra/pkg/collection"
	"github.com/shashiranjanraj/vastra/pkg/event"
	"github.com/shashiranjanraj/vastra/pkg/feed"
	"github.com/shashiranjanraj/vastra/pkg/identity"
	"github.com/shashiranjanraj/vastra/pkg/logger"
	"github.com/shashiranjanraj/vastra/pkg/metrics"
	"github.com/shashiranjanraj/vastra/pkg/storage"
	"github.com/shashiranjanraj/vastra/pkg/workerpool"
	"gorm.io/gorm"
)

// EventBatchFinished fires with the batch Summary after every completed
// import, failed units included. Listeners must not block.
const EventBatchFinished = "import.batch.finished"

// ImportOptions tunes one batch. Zero values fall back to config.
type ImportOptions struct {
	Profile   FeedProfile
	Workers   int    // concurrent units of work
	HighWater int    // queued units before the reader pauses
	BatchID   string // empty = generated
}

// Summary is what one finished batch reports.
type Summary struct {
	BatchID   string        `json:"batch_id"`
	Processed int64         `json:"processed"` // units that reached the catalog
	Failed    int64         `json:"failed"`    // units recorded in the error log
	ErrorLog  string        `json:"error_log,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Importer drives one feed end to end: stream rows, group them into units of
// work, fan the units out to a bounded worker pool, and collect failures into
// a per-batch error file. A failed unit never stops the batch; a failed read
// of the source does.
type Importer struct {
	db     *gorm.DB
	ids    identity.Provider
	disk   storage.Disk
	errDir string
}

func NewImporter(db *gorm.DB, ids identity.Provider, disk storage.Disk, errDir string) *Importer {
	if ids == nil {
		ids = identity.Default{}
	}
	if errDir == "" {
		errDir = config.ImportErrorDir()
	}
	return &Importer{db: db, ids: ids, disk: disk, errDir: errDir}
}

// ImportFile opens a local feed file and runs Import on it.
func (imp *Importer) ImportFile(ctx context.Context, path string, opts ImportOptions) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("import: open feed: %w", err)
	}
	defer f.Close()
	return imp.Import(ctx, f, opts)
}

// Import runs one batch against src. Cancelling ctx stops dispatching new
// units; units already queued or running drain before Import returns, so the
// summary always accounts for every dispatched unit.
func (imp *Importer) Import(ctx context.Context, src io.Reader, opts ImportOptions) (Summary, error) {
	start := time.Now()

	batchID := opts.BatchID
	if batchID == "" {
		batchID = imp.ids.BatchID()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = config.ImportWorkers()
	}
	highWater := opts.HighWater
	if highWater <= 0 {
		highWater = config.ImportHighWater()
	}

	log := logger.L.With("batch_id", batchID, "profile", opts.Profile.Name)
	ctx = logger.InjectLogger(ctx, log)
	log.Info("batch started", "workers", workers, "high_water", highWater)

	summary := Summary{BatchID: batchID}

	fr, err := feed.NewReader(src)
	if err != nil {
		// No usable header means nothing in the feed can be trusted.
		return summary, fmt.Errorf("import: %w", err)
	}

	transformer := NewTransformer(opts.Profile)
	reconciler := NewReconciler(imp.db, imp.ids)
	errLog := newErrorLog(imp.disk, imp.errDir, batchID)
	pool := workerpool.NewWithQueue(workers, highWater)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		failed    atomic.Int64
	)

	dispatch := func(unitID string, rows []feed.Row) bool {
		wg.Add(1)
		metrics.UnitsInFlight.Inc()
		err := pool.SubmitWait(func() {
			defer wg.Done()
			defer metrics.UnitsInFlight.Dec()
			imp.processUnit(ctx, transformer, reconciler, errLog, unitID, rows, &succeeded, &failed)
		})
		if err != nil {
			wg.Done()
			metrics.UnitsInFlight.Dec()
			return false
		}
		return true
	}

	var readErr error
	if opts.Profile.MultiRow {
		// Parent and child rows of one unit may be scattered through the
		// file, so grouping needs the whole feed before dispatch starts.
		var rows []feed.Row
		for {
			row, err := fr.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				readErr = err
				break
			}
			metrics.RowsRead.WithLabelValues(opts.Profile.Name).Inc()
			rows = append(rows, row)
		}

		if readErr == nil {
			key := func(r feed.Row) string {
				if k := r.Get(opts.Profile.GroupColumn); k != "" {
					return k
				}
				// No group key: the row stands alone and will fail
				// validation on its own terms.
				return fmt.Sprintf("line-%d", r.Line)
			}
			groups := collection.GroupBy(rows, key)
			for _, k := range collection.Unique(collection.Map(rows, key)) {
				if ctx.Err() != nil {
					break
				}
				dispatch(k, groups[k])
			}
		}
	} else {
		for {
			if ctx.Err() != nil {
				break
			}
			row, err := fr.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				readErr = err
				break
			}
			metrics.RowsRead.WithLabelValues(opts.Profile.Name).Inc()
			dispatch(fmt.Sprintf("line-%d", row.Line), []feed.Row{row})
		}
	}

	wg.Wait()
	pool.Shutdown()

	errPath, errCount, closeErr := errLog.Close()
	if closeErr != nil {
		log.Warn("error log not persisted", "error", closeErr)
	}

	summary.Processed = succeeded.Load()
	summary.Failed = failed.Load()
	summary.ErrorLog = errPath
	summary.Duration = time.Since(start)

	if readErr != nil {
		return summary, fmt.Errorf("import: read feed: %w", readErr)
	}

	event.Fire(EventBatchFinished, summary)
	log.Info("batch finished",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"errors", errCount,
		"duration", summary.Duration,
	)
	return summary, nil
}

// processUnit takes one unit of work from raw rows to the catalog. Any
// failure — transform, reconcile, or a panic out of either — lands in the
// error log and the batch moves on.
func (imp *Importer) processUnit(
	ctx context.Context,
	transformer *Transformer,
	reconciler *Reconciler,
	errLog *errorLog,
	unitID string,
	rows []feed.Row,
	succeeded, failed *atomic.Int64,
) {
	log := logger.WithCtx(ctx)
	profile := transformer.profile.Name
	timer := time.Now()
	defer func() {
		metrics.UnitDuration.WithLabelValues(profile).Observe(time.Since(timer).Seconds())
		if r := recover(); r != nil {
			failed.Add(1)
			metrics.UnitsProcessed.WithLabelValues(profile, "failed").Inc()
			errLog.Record(unitID, rows[0].Line, rows[0].Map(), fmt.Errorf("panic: %v", r))
			log.Error("unit panicked", "unit", unitID, "panic", r)
		}
	}()

	record, err := transformer.Transform(rows)
	if err != nil {
		failed.Add(1)
		metrics.UnitsProcessed.WithLabelValues(profile, "failed").Inc()
		errLog.Record(unitID, rows[0].Line, rows[0].Map(), err)
		log.Warn("unit rejected", "unit", unitID, "error", err)
		return
	}

	result, err := reconciler.Reconcile(ctx, record)
	if err != nil {
		failed.Add(1)
		metrics.UnitsProcessed.WithLabelValues(profile, "failed").Inc()
		errLog.Record(unitID, rows[0].Line, rows[0].Map(), err)
		log.Warn("unit failed", "unit", unitID, "sku", record.SKU, "error", err)
		return
	}

	succeeded.Add(1)
	metrics.UnitsProcessed.WithLabelValues(profile, "ok").Inc()
	if result.ProductCreated {
		metrics.ProductsCreated.Inc()
	}
	for i, vr := range result.Variants {
		if !vr.Created {
			continue
		}
		metrics.VariantsCreated.Inc()
		if i < len(record.Variants) && record.Variants[i].Stock > 0 {
			metrics.LedgerEntries.Inc()
		}
	}
	log.Debug("unit reconciled",
		"unit", unitID,
		"product_id", result.ProductID,
		"created", result.ProductCreated,
		"variants", len(result.Variants),
	)
}
