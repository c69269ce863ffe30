// Package detect decides whether a document's file was modified on disk
// since the editor last synced with it.
package detect

import (
	"context"

	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// HashSource is the part of the gateway the detector needs.
type HashSource interface {
	HashFile(ctx context.Context, path string) (fs.HashInfo, error)
}

// Detector compares a document's stored hash snapshot against the disk.
type Detector struct {
	FS HashSource
}

// New creates a detector reading from src.
func New(src HashSource) *Detector {
	return &Detector{FS: src}
}

// HasChanged reports whether doc's file differs from its snapshot. Documents
// without a disk counterpart or without a snapshot are never reported, and
// gateway errors count as unchanged.
func (d *Detector) HasChanged(ctx context.Context, doc tabs.Document) bool {
	if !doc.HasDiskCounterpart() || doc.FileHash == nil {
		return false
	}

	current, err := d.FS.HashFile(ctx, doc.FilePath)
	if err != nil {
		debug.Log(debug.DETECT, "HasChanged: %s: %v (treated as unchanged)", doc.FilePath, err)
		return false
	}

	changed, reason := Compare(*doc.FileHash, current)
	if changed {
		debug.Log(debug.DETECT, "HasChanged: %s modified on disk (%s)", doc.FilePath, reason)
	}
	return changed
}

// Compare checks size, then mtime, then hash, and names the first field that
// differs.
func Compare(stored, current fs.HashInfo) (bool, string) {
	switch {
	case stored.Size != current.Size:
		return true, "size"
	case stored.ModTime != current.ModTime:
		return true, "mtime"
	case stored.Hash != current.Hash:
		return true, "hash"
	}
	return false, ""
}
