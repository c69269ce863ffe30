package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/recent"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// OpenPath opens path in a new document, or activates the document already
// bound to it.
func (e *Editor) OpenPath(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("open: empty path: %w", fs.ErrNotFound)
	}
	path = absPath(path)
	if id, ok := e.store.Lookup(path); ok {
		debug.Log(debug.APP, "OpenPath: %s already open as %s", path, id)
		e.store.Dispatch(tabs.SetActive{ID: id})
		return id, nil
	}

	content, err := e.fs.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotFound) {
			e.recent.Forget(ctx, path)
		}
		e.emit(Event{
			Kind:     FileLoadFailed,
			FileName: tabs.TitleFromPath(path),
			Path:     path,
			Message:  fmt.Sprintf("Could not open %s", tabs.TitleFromPath(path)),
			Err:      err,
		})
		return "", err
	}
	return e.addLoaded(ctx, path, content), nil
}

// OpenDialog asks the user for a file and opens it. A dismissed picker
// returns fs.ErrCancelled and changes nothing.
func (e *Editor) OpenDialog(ctx context.Context) (string, error) {
	path, content, err := e.fs.OpenFilePicker(ctx)
	if errors.Is(err, fs.ErrCancelled) {
		debug.Log(debug.APP, "OpenDialog: cancelled")
		return "", err
	}
	if err != nil {
		e.emit(Event{
			Kind:     FileLoadFailed,
			FileName: tabs.TitleFromPath(path),
			Path:     path,
			Message:  "Could not open file",
			Err:      err,
		})
		return "", err
	}
	if id, ok := e.store.Lookup(path); ok {
		e.store.Dispatch(tabs.SetActive{ID: id})
		return id, nil
	}
	return e.addLoaded(ctx, path, content), nil
}

// addLoaded hashes freshly read content and adds it unless another open of
// the same path won the race.
func (e *Editor) addLoaded(ctx context.Context, path, content string) string {
	hash := e.hash(ctx, path)
	id, added := e.store.AddIfAbsent(tabs.FileDocument(path, content, hash))
	if !added {
		debug.Log(debug.APP, "Open: %s collapsed into %s", path, id)
		return id
	}

	e.recordVisit(ctx, path, content, hash)
	e.emit(Event{
		Kind:     FileLoaded,
		TabID:    id,
		FileName: tabs.TitleFromPath(path),
		Path:     path,
		Message:  loadedMessage(tabs.TitleFromPath(path), len(content)),
	})
	return id
}

// hash returns the snapshot for path, or nil when hashing fails. A nil
// snapshot makes the detector assume the file is unchanged.
func (e *Editor) hash(ctx context.Context, path string) *fs.HashInfo {
	info, err := e.fs.HashFile(ctx, path)
	if err != nil {
		debug.Log(debug.SAVE, "hash %s failed: %v", path, err)
		return nil
	}
	return &info
}

func (e *Editor) recordVisit(ctx context.Context, path, content string, hash *fs.HashInfo) {
	v := recent.Visit{Path: path, Content: content, Size: int64(len(content))}
	if hash != nil {
		v.Size = hash.Size
		v.ModTime = time.Unix(hash.ModTime, 0)
	}
	e.recent.Record(ctx, v)
}
