// Package jobs defines the background jobs Vastra can queue.
//
// Register every job type at boot so the queue workers can deserialize it:
//
//	queue.Register("*jobs.ImportFeedJob", func() queue.Job { return &ImportFeedJob{} })
package jobs

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/vastra/app/services"
	"github.com/shashiranjanraj/vastra/config"
	"github.com/shashiranjanraj/vastra/pkg/database"
	"github.com/shashiranjanraj/vastra/pkg/logger"
	"github.com/shashiranjanraj/vastra/pkg/queue"
	"github.com/shashiranjanraj/vastra/pkg/storage"
)

// ImportFeedJob runs one feed import in the background. The feed file lives
// on the default storage disk so a job queued on one host can run on another.
type ImportFeedJob struct {
	Path    string `json:"path"`    // feed file on the storage disk
	Profile string `json:"profile"` // registered profile name
	BatchID string `json:"batch_id,omitempty"`
}

// Handle satisfies queue.Job.
func (j *ImportFeedJob) Handle() error {
	profile, err := services.ProfileByName(j.Profile)
	if err != nil {
		return err
	}

	disk := storage.Use(config.StorageDefault())
	src, err := disk.GetStream(j.Path)
	if err != nil {
		return fmt.Errorf("jobs: open feed %s: %w", j.Path, err)
	}
	defer src.Close()

	importer := services.NewImporter(database.DB, nil, disk, config.ImportErrorDir())
	summary, err := importer.Import(context.Background(), src, services.ImportOptions{
		Profile: profile,
		BatchID: j.BatchID,
	})
	if err != nil {
		return fmt.Errorf("jobs: import %s: %w", j.Path, err)
	}

	logger.Info("feed import finished",
		"path", j.Path,
		"batch_id", summary.BatchID,
		"processed", summary.Processed,
		"failed", summary.Failed,
	)
	return nil
}

// RegisterAll wires every job type into the queue registry. Call once at boot
// before starting workers.
func RegisterAll() {
	queue.Register("*jobs.ImportFeedJob", func() queue.Job { return &ImportFeedJob{} })
}
