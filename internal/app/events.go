package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/justyntemme/bokuchi/internal/debug"
)

// EventKind identifies a notification for the UI layer.
type EventKind int

const (
	FileChangeDetected EventKind = iota
	FileSaved
	FileSaveFailed
	FileLoaded
	FileLoadFailed
)

func (k EventKind) String() string {
	switch k {
	case FileChangeDetected:
		return "fileChangeDetected"
	case FileSaved:
		return "fileSaved"
	case FileSaveFailed:
		return "fileSaveFailed"
	case FileLoaded:
		return "fileLoaded"
	case FileLoadFailed:
		return "fileLoadFailed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a notification emitted by the editor. Conflict is set only for
// FileChangeDetected, Err only for the failure kinds.
type Event struct {
	Kind     EventKind
	TabID    string
	FileName string
	Path     string
	Message  string
	Err      error
	Conflict *Conflict
}

// emit delivers ev without blocking. A full channel drops the event, the
// same way a busy watcher drops notifications.
func (e *Editor) emit(ev Event) {
	select {
	case e.events <- ev:
		debug.Log(debug.APP, "Event %s: %s", ev.Kind, ev.Message)
	default:
		debug.Log(debug.APP, "Event %s dropped (channel full): %s", ev.Kind, ev.Message)
	}
}

func savedMessage(name string, size int64) string {
	return fmt.Sprintf("Saved %s (%s)", name, humanize.Bytes(uint64(size)))
}

func loadedMessage(name string, size int) string {
	return fmt.Sprintf("Opened %s (%s)", name, humanize.Bytes(uint64(size)))
}
