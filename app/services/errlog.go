package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shashiranjanraj/vastra/pkg/storage"
)

// errorRecord is one line of the per-batch error file.
type errorRecord struct {
	BatchID string            `json:"batch_id"`
	Unit    string            `json:"unit"`
	Line    int               `json:"line,omitempty"`
	Error   string            `json:"error"`
	Sample  map[string]string `json:"sample,omitempty"`
	Time    time.Time         `json:"time"`
}

// errorLog collects per-unit failures as JSON lines. Records are streamed to
// a local spool file — memory stays bounded no matter how broken the feed
// is — and the spool is shipped to the storage disk on Close. Workers call
// Record concurrently.
type errorLog struct {
	mu      sync.Mutex
	batchID string
	disk    storage.Disk
	dest    string // path on disk
	spool   *os.File
	enc     *json.Encoder
	count   int64
}

func newErrorLog(disk storage.Disk, dir, batchID string) *errorLog {
	return &errorLog{
		batchID: batchID,
		disk:    disk,
		dest:    dir + "/" + batchID + ".jsonl",
	}
}

// Record appends one failure. Errors writing the log are reported to the
// caller's logger by Close; a broken error log must not fail the batch.
func (l *errorLog) Record(unit string, line int, sample map[string]string, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.spool == nil {
		f, err := os.CreateTemp("", "vastra-errors-*.jsonl")
		if err != nil {
			return
		}
		l.spool = f
		l.enc = json.NewEncoder(f)
	}

	_ = l.enc.Encode(errorRecord{
		BatchID: l.batchID,
		Unit:    unit,
		Line:    line,
		Error:   cause.Error(),
		Sample:  sample,
		Time:    time.Now().UTC(),
	})
	l.count++
}

// Close ships the spool to the storage disk and returns its path there plus
// the number of records. A batch with zero failures writes no file.
func (l *errorLog) Close() (string, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.spool == nil {
		return "", 0, nil
	}
	defer os.Remove(l.spool.Name())
	defer l.spool.Close()

	if _, err := l.spool.Seek(0, 0); err != nil {
		return "", l.count, fmt.Errorf("errlog: rewind spool: %w", err)
	}
	if err := l.disk.PutStream(l.dest, l.spool); err != nil {
		return "", l.count, fmt.Errorf("errlog: upload: %w", err)
	}
	return l.dest, l.count, nil
}
