// Package storage abstracts where feed files live and where batch artifacts
// go. Two drivers are available:
//   - "local"  — local filesystem (default)
//   - "s3"     — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Quick start:
//
//	// boot once (e.g. in cmd/vastra):
//	storage.Connect()
//
//	// stream a vendor feed from the default disk
//	rc, _ := storage.GetStream("feeds/acme-2026-08.csv")
//	defer rc.Close()
//
//	// write a batch error log to a named disk
//	storage.Use("s3").PutStream("import-errors/"+batchID+".jsonl", f)
package storage

import (
	"io"
	"time"
)

// Disk is the filesystem driver interface. Every driver must implement this.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(path string, content []byte) error

	// PutStream writes from r to path.
	PutStream(path string, r io.Reader) error

	// Get returns the full content of the file at path.
	Get(path string) ([]byte, error)

	// GetStream returns a ReadCloser for the file. Caller must close it.
	GetStream(path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(path string) bool

	// Size returns the byte size of the file.
	Size(path string) (int64, error)

	// LastModified returns the file's last-modified time.
	LastModified(path string) (time.Time, error)

	// Files lists non-recursive filenames directly inside directory.
	Files(directory string) ([]string, error)

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(path string) error

	// URL returns the public URL for path (meaningful for public disks / S3).
	URL(path string) string
}
