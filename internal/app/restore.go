package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/store"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// Restore loads the previous session and starts persisting the tab
// collection. Documents bound to a file are re-read from disk; a file that
// can no longer be read leaves an unsaved placeholder with the last known
// content. Without a usable snapshot one untitled document is created.
func (e *Editor) Restore(ctx context.Context) {
	e.loadVariables()

	snap, ok := e.loadSnapshot()
	if !ok {
		e.store.Dispatch(tabs.AddDocument{Doc: tabs.NewDocument()})
	} else {
		for i := range snap.Documents {
			e.restoreDocument(ctx, &snap.Documents[i])
		}
		e.store.Dispatch(tabs.LoadSnapshot{Snapshot: snap})
	}

	if e.persister == nil {
		e.persister = newPersister(e.settings, e.cfg.PersistDebounce())
		e.store.Subscribe(e.persister.schedule)
	}
	debug.Log(debug.APP, "Restore: %d documents", e.store.Len())
}

func (e *Editor) loadSnapshot() (tabs.State, bool) {
	if !e.cfg.Tabs.RestoreTabsOnStart {
		return tabs.State{}, false
	}
	raw, ok := e.settings.GetSetting(store.KeyTabsSnapshot)
	if !ok || raw == "" {
		return tabs.State{}, false
	}
	var snap tabs.State
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Printf("Restore: ignoring corrupt tab snapshot: %v", err)
		return tabs.State{}, false
	}
	if len(snap.Documents) == 0 {
		return tabs.State{}, false
	}
	return snap, true
}

func (e *Editor) restoreDocument(ctx context.Context, doc *tabs.Document) {
	if doc.ID == "" {
		doc.ID = tabs.NewDocument().ID
	}
	if doc.FilePath == "" {
		doc.IsNew = true
	}
	if !doc.HasDiskCounterpart() {
		doc.FileHash = nil
		return
	}

	path := doc.FilePath
	content, err := e.fs.ReadFile(ctx, path)
	if err != nil {
		debug.Log(debug.APP, "Restore: %s unreadable, keeping placeholder: %v", path, err)
		doc.IsNew = true
		doc.FilePath = ""
		doc.FileHash = nil
		doc.IsModified = doc.Content != ""
		e.emit(Event{
			Kind:     FileLoadFailed,
			TabID:    doc.ID,
			FileName: doc.Title,
			Path:     path,
			Message:  fmt.Sprintf("%s was not found. Save it again or close it.", doc.Title),
			Err:      err,
		})
		return
	}

	doc.Content = content
	doc.Title = tabs.TitleFromPath(path)
	doc.IsModified = false
	doc.FileHash = e.hash(ctx, path)
}

// Flush writes any pending snapshot immediately.
func (e *Editor) Flush() {
	if e.persister != nil {
		e.persister.Flush()
	}
}

// persister writes the tab snapshot after changes settle.
type persister struct {
	settings store.Settings
	delay    time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *tabs.State
}

func newPersister(settings store.Settings, delay time.Duration) *persister {
	return &persister{settings: settings, delay: delay}
}

func (p *persister) schedule(st tabs.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = &st
	if p.timer == nil {
		p.timer = time.AfterFunc(p.delay, p.Flush)
		return
	}
	p.timer.Reset(p.delay)
}

// Flush writes the latest scheduled snapshot, if any.
func (p *persister) Flush() {
	p.mu.Lock()
	st := p.pending
	p.pending = nil
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	if st == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		log.Printf("Persist: cannot encode tab snapshot: %v", err)
		return
	}
	p.settings.SetSetting(store.KeyTabsSnapshot, string(data))
	debug.Log(debug.STORE, "Persist: wrote snapshot (%d documents)", len(st.Documents))
}
