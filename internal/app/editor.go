// Package app wires the tab store to the file and settings gateways: open,
// save and close flows, change detection, session restore and external
// open signals.
package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/justyntemme/bokuchi/internal/config"
	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/detect"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/outline"
	"github.com/justyntemme/bokuchi/internal/recent"
	"github.com/justyntemme/bokuchi/internal/search"
	"github.com/justyntemme/bokuchi/internal/store"
	"github.com/justyntemme/bokuchi/internal/tabs"
	"github.com/justyntemme/bokuchi/internal/variables"
)

var (
	// ErrUnknownDocument is returned for commands naming a closed document.
	ErrUnknownDocument = errors.New("unknown document")
	// ErrConflictResolved is returned when a conflict is resolved twice.
	ErrConflictResolved = errors.New("conflict already resolved")
	// ErrPromptAnswered is returned when a close prompt is answered twice.
	ErrPromptAnswered = errors.New("close prompt already answered")
)

// DefaultEventBuffer is the capacity of the event channel.
const DefaultEventBuffer = 32

// Options are the editor's collaborators. FS is required; the rest fall
// back to in-memory or default values.
type Options struct {
	FS          fs.Gateway
	Settings    store.Settings
	Recent      *recent.Manager
	Config      config.Config
	Variables   *variables.Processor
	EventBuffer int
}

// Editor is the command and query surface the UI layer talks to.
type Editor struct {
	store     *tabs.Store
	fs        fs.Gateway
	detector  *detect.Detector
	recent    *recent.Manager
	settings  store.Settings
	cfg       config.Config
	vars      *variables.Processor
	events    chan Event
	persister *persister

	// documents with a conflict waiting for the user
	pendingMu sync.Mutex
	pending   map[string]bool
}

// NewEditor creates an editor with an empty tab collection. Call Restore to
// load the previous session or seed a default document.
func NewEditor(opts Options) *Editor {
	if opts.Settings == nil {
		opts.Settings = store.NewMemory()
	}
	if opts.Variables == nil {
		opts.Variables = variables.NewProcessor()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.Config.Tabs.LastTabBehavior == "" {
		opts.Config = *config.DefaultConfig()
	}

	return &Editor{
		store:    tabs.NewStore(tabs.State{}),
		fs:       opts.FS,
		detector: detect.New(opts.FS),
		recent:   opts.Recent,
		settings: opts.Settings,
		cfg:      opts.Config,
		vars:     opts.Variables,
		events:   make(chan Event, opts.EventBuffer),
		pending:  make(map[string]bool),
	}
}

// Events returns the notification channel.
func (e *Editor) Events() <-chan Event {
	return e.events
}

// Store exposes the tab store for subscriptions.
func (e *Editor) Store() *tabs.Store {
	return e.store
}

// State returns a copy of the tab collection.
func (e *Editor) State() tabs.State {
	return e.store.Snapshot()
}

// Active returns the active document.
func (e *Editor) Active() (tabs.Document, bool) {
	return e.store.Active()
}

// New adds an untitled document and makes it active.
func (e *Editor) New() string {
	doc := tabs.NewDocument()
	e.store.Dispatch(tabs.AddDocument{Doc: doc})
	debug.Log(debug.APP, "New: %s", doc.ID)
	return doc.ID
}

// Select activates id. Unknown ids clear the selection.
func (e *Editor) Select(id string) {
	e.store.Dispatch(tabs.SetActive{ID: id})
}

// Reorder arranges documents in the order of ids. Ids that are not open are
// ignored and open documents missing from ids keep their relative order at
// the end, so a stale drag never drops a tab.
func (e *Editor) Reorder(ids []string) {
	e.store.Transact(func(st tabs.State) []tabs.Action {
		seen := make(map[string]bool, len(ids))
		docs := make([]tabs.Document, 0, len(st.Documents))
		for _, id := range ids {
			if d, ok := st.Find(id); ok && !seen[id] {
				docs = append(docs, d)
				seen[id] = true
			}
		}
		for _, d := range st.Documents {
			if !seen[d.ID] {
				docs = append(docs, d)
			}
		}
		return []tabs.Action{tabs.Reorder{Documents: docs}}
	})
}

// UpdateContent replaces a document's text and marks it modified.
func (e *Editor) UpdateContent(id, content string) {
	e.store.Dispatch(tabs.UpdateContent{ID: id, Content: content})
}

// Outline lists the headings of a document.
func (e *Editor) Outline(id string) ([]outline.Heading, error) {
	doc, ok := e.store.Document(id)
	if !ok {
		return nil, fmt.Errorf("outline %s: %w", id, ErrUnknownDocument)
	}
	return outline.Headings(doc.Content), nil
}

// Expanded returns a document's content with variables substituted.
func (e *Editor) Expanded(id string) (string, error) {
	doc, ok := e.store.Document(id)
	if !ok {
		return "", fmt.Errorf("expand %s: %w", id, ErrUnknownDocument)
	}
	return e.vars.Process(doc.Content), nil
}

// Find searches the open documents with a directive query such as
// "contents:todo ext:md".
func (e *Editor) Find(query string) []search.Result {
	return search.Documents(search.Parse(query), e.store.Snapshot().Documents)
}

// Variables returns the global variable processor.
func (e *Editor) Variables() *variables.Processor {
	return e.vars
}

// ImportVariables merges YAML variables into the globals and persists them.
func (e *Editor) ImportVariables(data string) error {
	if err := e.vars.LoadYAML(data); err != nil {
		return err
	}
	return e.saveVariables()
}

// SetVariable sets one global variable and persists the set.
func (e *Editor) SetVariable(name, value string) error {
	e.vars.Set(name, value)
	return e.saveVariables()
}

// ClearVariables drops every global variable and the stored set.
func (e *Editor) ClearVariables() {
	e.vars.Clear()
	e.settings.DeleteSetting(store.KeyVariables)
}

func (e *Editor) saveVariables() error {
	out, err := e.vars.ExportYAML()
	if err != nil {
		return err
	}
	e.settings.SetSetting(store.KeyVariables, out)
	return nil
}

func (e *Editor) loadVariables() {
	raw, ok := e.settings.GetSetting(store.KeyVariables)
	if !ok || raw == "" {
		return
	}
	if err := e.vars.LoadYAML(raw); err != nil {
		debug.Log(debug.APP, "Variables: ignoring stored set: %v", err)
	}
}

// markPending records a conflict for id. It reports false when one is
// already waiting.
func (e *Editor) markPending(id string) bool {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if e.pending[id] {
		return false
	}
	e.pending[id] = true
	return true
}

func (e *Editor) clearPending(id string) {
	e.pendingMu.Lock()
	delete(e.pending, id)
	e.pendingMu.Unlock()
}

func (e *Editor) hasPending(id string) bool {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	return e.pending[id]
}
