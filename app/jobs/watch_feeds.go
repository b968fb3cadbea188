package jobs

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/vastra/app/models"
	"github.com/shashiranjanraj/vastra/pkg/logger"
	"github.com/shashiranjanraj/vastra/pkg/queue"
	"github.com/shashiranjanraj/vastra/pkg/storage"
)

// FeedWatcher scans a directory on the storage disk and queues an
// ImportFeedJob for every feed file it has not seen before. Seen files are
// recorded in feed_files; the unique index on path makes a scan racing a
// second watcher instance queue each file exactly once.
type FeedWatcher struct {
	db      *gorm.DB
	disk    storage.Disk
	dir     string
	profile string
}

func NewFeedWatcher(db *gorm.DB, disk storage.Disk, dir, profile string) *FeedWatcher {
	if dir == "" {
		dir = "feeds"
	}
	if profile == "" {
		profile = "default"
	}
	return &FeedWatcher{db: db, disk: disk, dir: dir, profile: profile}
}

// Scan lists the watched directory and queues new feed files.
func (w *FeedWatcher) Scan() {
	files, err := w.disk.Files(w.dir)
	if err != nil {
		logger.Warn("feed watch: list failed", "dir", w.dir, "error", err)
		return
	}

	for _, path := range files {
		if !isFeedFile(path) {
			continue
		}

		err := w.db.Create(&models.FeedFile{Path: path}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue // already queued
		}
		if err != nil {
			logger.Warn("feed watch: record failed", "path", path, "error", err)
			continue
		}

		if err := queue.Dispatch(&ImportFeedJob{Path: path, Profile: w.profile}); err != nil {
			logger.Error("feed watch: dispatch failed", "path", path, "error", err)
			// Let the next scan retry.
			w.db.Where("path = ?", path).Delete(&models.FeedFile{})
			continue
		}
		logger.Info("feed watch: queued", "path", path)
	}
}

func isFeedFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".csv") ||
		strings.HasSuffix(lower, ".tsv") ||
		strings.HasSuffix(lower, ".txt")
}
