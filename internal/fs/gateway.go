// Package fs is the editor's file-system gateway: reading, writing and
// hashing documents on disk, and delegating native pick dialogs to the UI.
package fs

import (
	"context"
	"errors"
)

var (
	// ErrCancelled is returned when the user dismisses a picker. It is a
	// clean abort, not a failure.
	ErrCancelled = errors.New("cancelled by user")

	ErrNotFound         = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTooLarge         = errors.New("file too large")
	ErrUnsupportedType  = errors.New("unsupported file type")
)

// LargeFileHash is reported instead of a content hash for files above the
// size limit. Change detection then relies on size and mtime only.
const LargeFileHash = "large_file"

// HashInfo is a snapshot of a file taken when its content was known to match
// the editor.
type HashInfo struct {
	Hash    string `json:"hash"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mtime"` // Unix seconds
}

// Gateway is everything the editor core needs from the disk and from the
// native dialogs. Every call may fail; pickers return ErrCancelled when the
// user backs out.
type Gateway interface {
	OpenFilePicker(ctx context.Context) (path, content string, err error)
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) error
	SaveFilePicker(ctx context.Context, content, suggestedPath string) (string, error)
	HashFile(ctx context.Context, path string) (HashInfo, error)
}

// Prompter is implemented by the UI layer's native dialogs. Both methods
// return ErrCancelled when dismissed.
type Prompter interface {
	PickOpenPath(ctx context.Context) (string, error)
	PickSavePath(ctx context.Context, suggestedPath string) (string, error)
}
