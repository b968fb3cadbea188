package models

import "time"

// FeedFile tracks feed files the watcher has already queued, so a file on
// the storage disk is imported once no matter how many scan ticks see it.
type FeedFile struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Path     string    `gorm:"size:500;uniqueIndex;not null" json:"path"`
	QueuedAt time.Time `gorm:"autoCreateTime" json:"queued_at"`
}
