package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/justyntemme/bokuchi/internal/debug"
)

// FileWatcher reports writes to the followed file. It watches the file's
// directory so editors that save by rename are still seen.
type FileWatcher struct {
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	file       string // cleaned path of the followed file
	dir        string // directory currently added to fsnotify
	notify     chan string
	done       chan struct{}
	closeOnce  sync.Once
	debounceMs int
}

// NewFileWatcher creates a watcher that coalesces events within debounceMs.
func NewFileWatcher(debounceMs int) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounceMs <= 0 {
		debounceMs = 200
	}

	fw := &FileWatcher{
		watcher:    w,
		notify:     make(chan string, 10),
		done:       make(chan struct{}),
		debounceMs: debounceMs,
	}

	go fw.run()
	return fw, nil
}

func (fw *FileWatcher) run() {
	var lastEvent time.Time
	pending := ""
	ticker := time.NewTicker(time.Duration(fw.debounceMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			fw.mu.Lock()
			if fw.file != "" && filepath.Clean(event.Name) == fw.file {
				lastEvent = time.Now()
				pending = fw.file
				debug.Log(debug.WATCH, "FSNotify event: %s on %s", event.Op, event.Name)
			}
			fw.mu.Unlock()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.WATCH, "FSNotify error: %v", err)

		case <-ticker.C:
			if pending == "" || time.Since(lastEvent) < time.Duration(fw.debounceMs)*time.Millisecond {
				continue
			}
			select {
			case fw.notify <- pending:
				debug.Log(debug.WATCH, "File change notification: %s", pending)
			default:
			}
			pending = ""
		}
	}
}

// Follow switches the watcher to path. An empty path stops watching.
func (fw *FileWatcher) Follow(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	file, dir := "", ""
	if path != "" {
		file = filepath.Clean(filepath.FromSlash(path))
		dir = filepath.Dir(file)
	}
	fw.file = file
	if dir == fw.dir {
		return
	}

	if fw.dir != "" {
		if err := fw.watcher.Remove(fw.dir); err != nil {
			// the directory may already be gone
			debug.Log(debug.WATCH, "Error unwatching %s: %v", fw.dir, err)
		}
		fw.dir = ""
	}
	if dir == "" {
		return
	}
	if err := fw.watcher.Add(dir); err != nil {
		debug.Log(debug.WATCH, "Cannot watch %s: %v", dir, err)
		return
	}
	fw.dir = dir
	debug.Log(debug.WATCH, "Now watching %s in %s", file, dir)
}

// Notify returns the channel that receives changed file paths.
func (fw *FileWatcher) Notify() <-chan string {
	return fw.notify
}

// Close shuts down the watcher.
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}
