package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// Outcome is how a save request ended.
type Outcome int

const (
	Saved Outcome = iota
	ConflictDetected
	Cancelled
	Failed
	Reloaded // disk content loaded, nothing written
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case ConflictDetected:
		return "conflict"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	case Reloaded:
		return "reloaded"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// SaveResult is returned by every save command. Conflict is set when the
// file changed on disk and nothing was written yet; Err is set on Failed.
type SaveResult struct {
	Outcome  Outcome
	Path     string
	Err      error
	Conflict *Conflict
}

// Conflict is a pending decision about a file that changed on disk. Exactly
// one of Reload or Cancel takes effect; later calls fail with
// ErrConflictResolved.
type Conflict struct {
	TabID    string
	FileName string
	Path     string

	done   atomic.Bool
	reload func(context.Context) SaveResult
	cancel func(context.Context) SaveResult
}

// Reload takes the disk version. After a save conflict it is written back
// and the result is Saved; after a periodic check nothing is written and the
// result is Reloaded.
func (c *Conflict) Reload(ctx context.Context) SaveResult {
	if !c.done.CompareAndSwap(false, true) {
		return SaveResult{Outcome: Failed, Path: c.Path, Err: ErrConflictResolved}
	}
	return c.reload(ctx)
}

// Cancel keeps the in-memory version.
func (c *Conflict) Cancel(ctx context.Context) SaveResult {
	if !c.done.CompareAndSwap(false, true) {
		return SaveResult{Outcome: Failed, Path: c.Path, Err: ErrConflictResolved}
	}
	return c.cancel(ctx)
}

// Resolved reports whether Reload or Cancel was called.
func (c *Conflict) Resolved() bool {
	return c.done.Load()
}

// Save writes a document to its file, asking for a destination when it has
// none. A file changed on disk since the last sync is not overwritten: the
// result carries a Conflict instead.
func (e *Editor) Save(ctx context.Context, id string) SaveResult {
	doc, ok := e.store.Document(id)
	if !ok {
		return SaveResult{Outcome: Failed, Err: fmt.Errorf("save %s: %w", id, ErrUnknownDocument)}
	}
	if !doc.HasDiskCounterpart() {
		return e.saveWithPicker(ctx, doc)
	}

	if e.detector.HasChanged(ctx, doc) {
		debug.Log(debug.SAVE, "Save: %s changed on disk, deferring to user", doc.FilePath)
		e.markPending(id)
		return SaveResult{
			Outcome:  ConflictDetected,
			Path:     doc.FilePath,
			Conflict: e.saveConflict(doc),
		}
	}
	return e.write(ctx, id, doc.FilePath, doc.Content, false)
}

// SaveAs always asks for a destination and skips the conflict check.
func (e *Editor) SaveAs(ctx context.Context, id string) SaveResult {
	doc, ok := e.store.Document(id)
	if !ok {
		return SaveResult{Outcome: Failed, Err: fmt.Errorf("save as %s: %w", id, ErrUnknownDocument)}
	}
	return e.saveWithPicker(ctx, doc)
}

func (e *Editor) saveWithPicker(ctx context.Context, doc tabs.Document) SaveResult {
	suggested := doc.FilePath
	if suggested == "" {
		suggested = doc.Title + ".md"
	}

	path, err := e.fs.SaveFilePicker(ctx, doc.Content, suggested)
	if errors.Is(err, fs.ErrCancelled) {
		debug.Log(debug.SAVE, "SaveAs: %s cancelled", doc.ID)
		return SaveResult{Outcome: Cancelled}
	}
	if err != nil {
		return e.saveFailed(doc.ID, suggested, err)
	}
	return e.finishWrite(ctx, doc.ID, path, doc.Content, true)
}

// write stores content at path and syncs the document with the result.
func (e *Editor) write(ctx context.Context, id, path, content string, bind bool) SaveResult {
	if err := e.fs.WriteFile(ctx, path, content); err != nil {
		return e.saveFailed(id, path, err)
	}
	return e.finishWrite(ctx, id, path, content, bind)
}

// finishWrite runs after content reached path. bind attaches the document
// to path; a different document bound to the same path is released.
func (e *Editor) finishWrite(ctx context.Context, id, path, content string, bind bool) SaveResult {
	hash := e.hash(ctx, path)
	e.store.Transact(func(st tabs.State) []tabs.Action {
		doc, ok := st.Find(id)
		if !ok {
			return nil
		}
		var actions []tabs.Action
		if bind {
			key := tabs.NormalizePath(path)
			for _, other := range st.Documents {
				if other.ID != id && other.FilePath != "" && tabs.NormalizePath(other.FilePath) == key {
					actions = append(actions, detach(other.ID)...)
				}
			}
			actions = append(actions,
				tabs.SetFilePath{ID: id, Path: path},
				tabs.SetTitle{ID: id, Title: tabs.TitleFromPath(path)},
				tabs.SetIsNew{ID: id, IsNew: false},
			)
		}
		actions = append(actions, tabs.SetFileHash{ID: id, Hash: hash})
		// edits typed while the write was in flight stay dirty
		if doc.Content == content {
			actions = append(actions, tabs.SetModified{ID: id, Modified: false})
		}
		return actions
	})

	e.recordVisit(ctx, path, content, hash)

	size := int64(len(content))
	if hash != nil {
		size = hash.Size
	}
	e.emit(Event{
		Kind:     FileSaved,
		TabID:    id,
		FileName: tabs.TitleFromPath(path),
		Path:     path,
		Message:  savedMessage(tabs.TitleFromPath(path), size),
	})
	debug.Log(debug.SAVE, "Saved %s to %s", id, path)
	return SaveResult{Outcome: Saved, Path: path}
}

// detach turns a document into an unsaved one that no longer claims a file.
func detach(id string) []tabs.Action {
	return []tabs.Action{
		tabs.SetIsNew{ID: id, IsNew: true},
		tabs.SetFilePath{ID: id, Path: ""},
		tabs.SetFileHash{ID: id, Hash: nil},
		tabs.SetModified{ID: id, Modified: true},
	}
}

func (e *Editor) saveFailed(id, path string, err error) SaveResult {
	debug.Log(debug.SAVE, "Save %s to %s failed: %v", id, path, err)
	e.emit(Event{
		Kind:     FileSaveFailed,
		TabID:    id,
		FileName: tabs.TitleFromPath(path),
		Path:     path,
		Message:  fmt.Sprintf("Could not save %s", tabs.TitleFromPath(path)),
		Err:      err,
	})
	return SaveResult{Outcome: Failed, Path: path, Err: err}
}

// saveConflict builds the decision for a save that found the file changed.
// Reload takes the disk content and then completes the save with it. Cancel
// writes the in-memory content as it is when Cancel runs.
func (e *Editor) saveConflict(doc tabs.Document) *Conflict {
	id, path := doc.ID, doc.FilePath
	return &Conflict{
		TabID:    id,
		FileName: doc.Title,
		Path:     path,
		reload: func(ctx context.Context) SaveResult {
			defer e.clearPending(id)
			content, err := e.reloadFromDisk(ctx, id, path)
			if err != nil {
				return e.saveFailed(id, path, err)
			}
			return e.write(ctx, id, path, content, false)
		},
		cancel: func(ctx context.Context) SaveResult {
			defer e.clearPending(id)
			current, ok := e.store.Document(id)
			if !ok {
				return SaveResult{Outcome: Failed, Path: path, Err: fmt.Errorf("save %s: %w", id, ErrUnknownDocument)}
			}
			res := e.write(ctx, id, path, current.Content, false)
			e.store.Dispatch(tabs.SetActive{ID: id})
			return res
		},
	}
}

// reloadFromDisk replaces a document's content with the file's and makes it
// active and clean.
func (e *Editor) reloadFromDisk(ctx context.Context, id, path string) (string, error) {
	content, err := e.fs.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	hash := e.hash(ctx, path)
	e.store.Dispatch(
		tabs.UpdateContent{ID: id, Content: content},
		tabs.SetModified{ID: id, Modified: false},
		tabs.SetFileHash{ID: id, Hash: hash},
		tabs.SetActive{ID: id},
	)
	debug.Log(debug.SAVE, "Reloaded %s from %s", id, path)
	return content, nil
}
