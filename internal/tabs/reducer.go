package tabs

import "github.com/justyntemme/bokuchi/internal/fs"

// Action is a state transition understood by Reduce.
type Action interface {
	isAction()
}

// AddDocument appends Doc and makes it active. Path uniqueness is the
// caller's concern (see Store.AddIfAbsent).
type AddDocument struct{ Doc Document }

// RemoveDocument removes the document. When it was active, the document now
// at its former index (clamped to the last one) becomes active.
type RemoveDocument struct{ ID string }

// SetActive selects ID, or clears the selection when ID is unknown.
type SetActive struct{ ID string }

// UpdateContent replaces the content and always marks the document modified,
// even when the text is unchanged.
type UpdateContent struct {
	ID      string
	Content string
}

type SetTitle struct {
	ID    string
	Title string
}

type SetModified struct {
	ID       string
	Modified bool
}

type SetFilePath struct {
	ID   string
	Path string
}

type SetIsNew struct {
	ID    string
	IsNew bool
}

type SetFileHash struct {
	ID   string
	Hash *fs.HashInfo
}

// Reorder replaces the sequence wholesale.
type Reorder struct{ Documents []Document }

// LoadSnapshot installs a restored collection.
type LoadSnapshot struct{ Snapshot State }

func (AddDocument) isAction()    {}
func (RemoveDocument) isAction() {}
func (SetActive) isAction()      {}
func (UpdateContent) isAction()  {}
func (SetTitle) isAction()       {}
func (SetModified) isAction()    {}
func (SetFilePath) isAction()    {}
func (SetIsNew) isAction()       {}
func (SetFileHash) isAction()    {}
func (Reorder) isAction()        {}
func (LoadSnapshot) isAction()   {}

// Reduce returns the state that results from applying action to state. It
// never mutates state; unknown ids leave the state untouched.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case AddDocument:
		docs := make([]Document, 0, len(state.Documents)+1)
		docs = append(docs, state.Documents...)
		docs = append(docs, a.Doc)
		return State{Documents: docs, ActiveID: a.Doc.ID}

	case RemoveDocument:
		idx := state.Index(a.ID)
		if idx < 0 {
			return state
		}
		docs := make([]Document, 0, len(state.Documents)-1)
		docs = append(docs, state.Documents[:idx]...)
		docs = append(docs, state.Documents[idx+1:]...)

		active := state.ActiveID
		if active == a.ID {
			active = ""
			if len(docs) > 0 {
				active = docs[min(idx, len(docs)-1)].ID
			}
		}
		return State{Documents: docs, ActiveID: active}

	case SetActive:
		if state.Index(a.ID) < 0 {
			if state.ActiveID == "" {
				return state
			}
			return State{Documents: state.Documents, ActiveID: ""}
		}
		if state.ActiveID == a.ID {
			return state
		}
		return State{Documents: state.Documents, ActiveID: a.ID}

	case UpdateContent:
		return update(state, a.ID, func(d *Document) {
			d.Content = a.Content
			d.IsModified = true
		})

	case SetTitle:
		return update(state, a.ID, func(d *Document) { d.Title = a.Title })

	case SetModified:
		return update(state, a.ID, func(d *Document) { d.IsModified = a.Modified })

	case SetFilePath:
		return update(state, a.ID, func(d *Document) { d.FilePath = a.Path })

	case SetIsNew:
		return update(state, a.ID, func(d *Document) { d.IsNew = a.IsNew })

	case SetFileHash:
		return update(state, a.ID, func(d *Document) {
			if a.Hash == nil {
				d.FileHash = nil
				return
			}
			h := *a.Hash
			d.FileHash = &h
		})

	case Reorder:
		return revalidate(state.ActiveID, a.Documents)

	case LoadSnapshot:
		return revalidate(a.Snapshot.ActiveID, a.Snapshot.Documents)
	}
	return state
}

// update copies the sequence and applies fn to the document with id.
func update(state State, id string, fn func(*Document)) State {
	idx := state.Index(id)
	if idx < 0 {
		return state
	}
	docs := make([]Document, len(state.Documents))
	copy(docs, state.Documents)
	fn(&docs[idx])
	return State{Documents: docs, ActiveID: state.ActiveID}
}

// revalidate keeps active if it is still present, else falls back to the
// first document.
func revalidate(active string, documents []Document) State {
	docs := make([]Document, len(documents))
	copy(docs, documents)

	next := State{Documents: docs}
	switch {
	case active != "" && next.Index(active) >= 0:
		next.ActiveID = active
	case len(docs) > 0:
		next.ActiveID = docs[0].ID
	}
	return next
}
