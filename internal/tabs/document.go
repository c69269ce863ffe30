// Package tabs holds the open documents and the active selection. State only
// changes through Reduce; Store serializes dispatches and keeps a path index
// for duplicate-open checks.
package tabs

import (
	pathpkg "path"

	"github.com/google/uuid"
	"github.com/justyntemme/bokuchi/internal/fs"
)

// UntitledTitle is the title of documents not bound to a file.
const UntitledTitle = "Untitled"

// Document is one open editable unit (a tab in the UI).
type Document struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	FilePath   string       `json:"filePath,omitempty"`
	IsNew      bool         `json:"isNew"`
	IsModified bool         `json:"isModified"`
	FileHash   *fs.HashInfo `json:"fileHashInfo,omitempty"`
}

// NewDocument returns an empty, unsaved document with a fresh id.
func NewDocument() Document {
	return Document{
		ID:    uuid.NewString(),
		Title: UntitledTitle,
		IsNew: true,
	}
}

// FileDocument returns a document bound to path with content that was just
// read from disk.
func FileDocument(path, content string, hash *fs.HashInfo) Document {
	return Document{
		ID:       uuid.NewString(),
		Title:    TitleFromPath(path),
		Content:  content,
		FilePath: path,
		FileHash: hash,
	}
}

// TitleFromPath derives a display title from a file path.
func TitleFromPath(path string) string {
	if path == "" {
		return UntitledTitle
	}
	base := pathpkg.Base(NormalizePath(path))
	if base == "" || base == "." || base == "/" {
		return UntitledTitle
	}
	return base
}

// HasDiskCounterpart reports whether the document is bound to a file that
// was opened or saved.
func (d Document) HasDiskCounterpart() bool {
	return d.FilePath != "" && !d.IsNew
}

// State is the tab collection. ActiveID is empty when nothing is active.
type State struct {
	Documents []Document `json:"documents"`
	ActiveID  string     `json:"activeId,omitempty"`
}

// Index returns the position of id, or -1.
func (s State) Index(id string) int {
	for i, d := range s.Documents {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the document with id.
func (s State) Find(id string) (Document, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Documents[i], true
	}
	return Document{}, false
}

// Active returns the active document.
func (s State) Active() (Document, bool) {
	if s.ActiveID == "" {
		return Document{}, false
	}
	return s.Find(s.ActiveID)
}

// Clone copies the document slice so the result can be handed to readers.
func (s State) Clone() State {
	docs := make([]Document, len(s.Documents))
	for i, d := range s.Documents {
		if d.FileHash != nil {
			h := *d.FileHash
			d.FileHash = &h
		}
		docs[i] = d
	}
	return State{Documents: docs, ActiveID: s.ActiveID}
}
