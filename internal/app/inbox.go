package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// Inbox takes "open this path" signals from the OS. Repeats of one path
// within the debounce window are dropped, and signals that arrive before
// MarkReady are held until then.
type Inbox struct {
	editor    *Editor
	debouncer *KeyedDebouncer

	// Validate rejects paths that must not be opened. Defaults to an
	// existing regular file with a configured extension.
	Validate func(path string) error

	mu       sync.Mutex
	ready    bool
	buffered []string
}

// NewInbox creates an inbox feeding e.
func NewInbox(e *Editor) *Inbox {
	in := &Inbox{
		editor:    e,
		debouncer: NewKeyedDebouncer(e.cfg.OpenDebounce()),
	}
	in.Validate = func(path string) error {
		return validateOpenPath(path, e.cfg.Files.Extensions)
	}
	return in
}

// Signal handles one external open request. It reports whether the path
// was accepted for opening, now or after MarkReady.
func (in *Inbox) Signal(ctx context.Context, path string) bool {
	if path == "" {
		return false
	}
	path = absPath(path)
	if !in.debouncer.Allow(tabs.NormalizePath(path)) {
		debug.Log(debug.APP, "Inbox: %s debounced", path)
		return false
	}

	in.mu.Lock()
	if !in.ready {
		in.buffered = append(in.buffered, path)
		in.mu.Unlock()
		debug.Log(debug.APP, "Inbox: %s buffered until ready", path)
		return true
	}
	in.mu.Unlock()

	return in.open(ctx, path)
}

// MarkReady opens buffered signals in arrival order and lets later signals
// through directly.
func (in *Inbox) MarkReady(ctx context.Context) {
	in.mu.Lock()
	if in.ready {
		in.mu.Unlock()
		return
	}
	in.ready = true
	queued := in.buffered
	in.buffered = nil
	in.mu.Unlock()

	for _, path := range queued {
		in.open(ctx, path)
	}
}

func (in *Inbox) open(ctx context.Context, path string) bool {
	if err := in.Validate(path); err != nil {
		debug.Log(debug.APP, "Inbox: rejecting %s: %v", path, err)
		return false
	}
	if _, err := in.editor.OpenPath(ctx, path); err != nil {
		return false
	}
	return true
}

// absPath anchors a relative path at the working directory so one file
// always maps to one document. Rooted paths, with either separator, are only
// cleaned.
func absPath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) || strings.HasPrefix(tabs.NormalizePath(path), "/") {
		return filepath.Clean(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// validateOpenPath is stricter than fs.Local.Accepts: OS open signals for
// files without an extension are refused.
func validateOpenPath(path string, extensions []string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, fs.ErrNotFound)
	}
	if info.IsDir() {
		return fmt.Errorf("open %s: is a directory: %w", path, fs.ErrUnsupportedType)
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range extensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return fmt.Errorf("open %s: %w", path, fs.ErrUnsupportedType)
}
