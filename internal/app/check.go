package app

import (
	"context"
	"fmt"
	"time"

	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// CheckActive runs the change detector against the active document. When
// the file changed it emits FileChangeDetected and returns the conflict. At
// most one conflict per document waits for the user at a time.
func (e *Editor) CheckActive(ctx context.Context) *Conflict {
	doc, ok := e.store.Active()
	if !ok || !doc.HasDiskCounterpart() || e.hasPending(doc.ID) {
		return nil
	}
	if !e.detector.HasChanged(ctx, doc) {
		return nil
	}
	if !e.markPending(doc.ID) {
		return nil
	}

	c := e.externalConflict(doc)
	e.emit(Event{
		Kind:     FileChangeDetected,
		TabID:    doc.ID,
		FileName: doc.Title,
		Path:     doc.FilePath,
		Message:  fmt.Sprintf("%s was changed by another program", doc.Title),
		Conflict: c,
	})
	return c
}

// externalConflict is the decision offered when the periodic check finds a
// change. Reload takes the disk content. Cancel keeps the editor's content
// and adopts the new snapshot so the check does not fire again.
func (e *Editor) externalConflict(doc tabs.Document) *Conflict {
	id, path := doc.ID, doc.FilePath
	return &Conflict{
		TabID:    id,
		FileName: doc.Title,
		Path:     path,
		reload: func(ctx context.Context) SaveResult {
			defer e.clearPending(id)
			if _, err := e.reloadFromDisk(ctx, id, path); err != nil {
				e.emit(Event{
					Kind:     FileLoadFailed,
					TabID:    id,
					FileName: tabs.TitleFromPath(path),
					Path:     path,
					Message:  fmt.Sprintf("Could not reload %s", tabs.TitleFromPath(path)),
					Err:      err,
				})
				return SaveResult{Outcome: Failed, Path: path, Err: err}
			}
			return SaveResult{Outcome: Reloaded, Path: path}
		},
		cancel: func(ctx context.Context) SaveResult {
			defer e.clearPending(id)
			hash := e.hash(ctx, path)
			e.store.Transact(func(st tabs.State) []tabs.Action {
				current, ok := st.Find(id)
				if !ok {
					return nil
				}
				actions := []tabs.Action{tabs.SetFileHash{ID: id, Hash: hash}, tabs.SetActive{ID: id}}
				if hash == nil || hash.Hash != fs.HashContent(current.Content) {
					actions = append(actions, tabs.SetModified{ID: id, Modified: true})
				}
				return actions
			})
			return SaveResult{Outcome: Cancelled, Path: path}
		},
	}
}

// AutoSave saves every modified document that is bound to a file. Conflicts
// are never resolved here; they are handed to the UI as events.
func (e *Editor) AutoSave(ctx context.Context) {
	for _, doc := range e.store.Snapshot().Documents {
		if !doc.IsModified || !doc.HasDiskCounterpart() || e.hasPending(doc.ID) {
			continue
		}
		res := e.Save(ctx, doc.ID)
		if res.Outcome != ConflictDetected {
			continue
		}
		e.emit(Event{
			Kind:     FileChangeDetected,
			TabID:    doc.ID,
			FileName: doc.Title,
			Path:     doc.FilePath,
			Message:  fmt.Sprintf("%s was changed by another program", doc.Title),
			Conflict: res.Conflict,
		})
	}
}

// Run drives the periodic change check, autosave and the file watcher until
// ctx is done.
func (e *Editor) Run(ctx context.Context) {
	var checkC, autoC <-chan time.Time
	if iv := e.cfg.ChangeCheckInterval(); iv > 0 {
		t := time.NewTicker(iv)
		defer t.Stop()
		checkC = t.C
	}
	if iv := e.cfg.AutoSaveInterval(); e.cfg.Editor.AutoSave && iv > 0 {
		t := time.NewTicker(iv)
		defer t.Stop()
		autoC = t.C
	}

	var watchC <-chan string
	if e.cfg.Editor.WatchFiles {
		w, err := NewFileWatcher(0)
		if err != nil {
			debug.Log(debug.WATCH, "Run: watcher unavailable: %v", err)
		} else {
			defer w.Close()
			follow := func(st tabs.State) {
				if doc, ok := st.Active(); ok && doc.HasDiskCounterpart() {
					w.Follow(doc.FilePath)
				} else {
					w.Follow("")
				}
			}
			follow(e.store.Snapshot())
			defer e.store.Subscribe(follow)()
			watchC = w.Notify()
		}
	}

	debug.Log(debug.APP, "Run: check=%v autosave=%v watch=%v", checkC != nil, autoC != nil, watchC != nil)
	for {
		select {
		case <-ctx.Done():
			return
		case <-checkC:
			e.CheckActive(ctx)
		case <-autoC:
			e.AutoSave(ctx)
		case path := <-watchC:
			if doc, ok := e.store.Active(); ok && tabs.NormalizePath(doc.FilePath) == tabs.NormalizePath(path) {
				e.CheckActive(ctx)
			}
		}
	}
}
