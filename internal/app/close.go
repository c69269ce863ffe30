package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/bokuchi/internal/config"
	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// CloseOutcome is how a close request ended.
type CloseOutcome int

const (
	Closed CloseOutcome = iota
	ClosePrompt
	CloseFailed
)

// CloseResult is returned by Close. Prompt is set when the document has
// unsaved changes and the user must choose.
type CloseResult struct {
	Outcome CloseOutcome
	Prompt  *UnsavedPrompt
	Err     error
}

// UnsavedPrompt is the Save / Don't Save / Cancel choice for closing a
// modified document.
type UnsavedPrompt struct {
	TabID    string
	FileName string

	e    *Editor
	done atomic.Bool
}

// Close removes a document. Modified documents are not removed; the result
// carries a prompt instead.
func (e *Editor) Close(ctx context.Context, id string) CloseResult {
	doc, ok := e.store.Document(id)
	if !ok {
		return CloseResult{Outcome: CloseFailed, Err: fmt.Errorf("close %s: %w", id, ErrUnknownDocument)}
	}
	if doc.IsModified {
		return CloseResult{
			Outcome: ClosePrompt,
			Prompt:  &UnsavedPrompt{TabID: id, FileName: doc.Title, e: e},
		}
	}
	e.remove(id)
	return CloseResult{Outcome: Closed}
}

// Save saves the document and closes it if the save succeeds. When the save
// hits a conflict, the returned Conflict closes the document once it is
// resolved successfully.
func (p *UnsavedPrompt) Save(ctx context.Context) SaveResult {
	if !p.done.CompareAndSwap(false, true) {
		return SaveResult{Outcome: Failed, Err: ErrPromptAnswered}
	}
	res := p.e.Save(ctx, p.TabID)
	switch res.Outcome {
	case Saved:
		p.e.remove(p.TabID)
	case ConflictDetected:
		res.Conflict = p.e.closeAfter(p.TabID, res.Conflict)
	}
	return res
}

// Discard closes the document without saving.
func (p *UnsavedPrompt) Discard() {
	if p.done.CompareAndSwap(false, true) {
		p.e.remove(p.TabID)
	}
}

// Cancel keeps the document open.
func (p *UnsavedPrompt) Cancel() {
	p.done.Store(true)
}

// closeAfter wraps c so that a successful resolution also closes id.
func (e *Editor) closeAfter(id string, c *Conflict) *Conflict {
	then := func(res SaveResult) SaveResult {
		if res.Outcome == Saved {
			e.remove(id)
		}
		return res
	}
	return &Conflict{
		TabID:    c.TabID,
		FileName: c.FileName,
		Path:     c.Path,
		reload:   func(ctx context.Context) SaveResult { return then(c.Reload(ctx)) },
		cancel:   func(ctx context.Context) SaveResult { return then(c.Cancel(ctx)) },
	}
}

// remove drops a document. Closing the last one seeds a fresh untitled
// document unless the config keeps the collection empty.
func (e *Editor) remove(id string) {
	e.clearPending(id)
	e.store.Transact(func(st tabs.State) []tabs.Action {
		if st.Index(id) < 0 {
			return nil
		}
		actions := []tabs.Action{tabs.RemoveDocument{ID: id}}
		if len(st.Documents) == 1 && e.cfg.Tabs.LastTabBehavior == config.LastTabNewUntitled {
			actions = append(actions, tabs.AddDocument{Doc: tabs.NewDocument()})
		}
		return actions
	})
	debug.Log(debug.APP, "Closed %s", id)
}
