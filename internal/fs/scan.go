package fs

import (
	"context"
	iofs "io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/justyntemme/bokuchi/internal/debug"
)

// Entry is a file found by Scan.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Scan lists the editable files below root, skipping dot-directories.
// Results are sorted by path.
func (l *Local) Scan(ctx context.Context, root string) ([]Entry, error) {
	var result []Entry
	var mu sync.Mutex

	var start time.Time
	if debug.IsEnabled(debug.FS_WALK) {
		start = time.Now()
	}
	conf := &fastwalk.Config{Follow: false}

	err := fastwalk.Walk(conf, root, func(fullPath string, d iofs.DirEntry, err error) error {
		if err != nil {
			debug.Log(debug.FS_WALK, "Scan: walk error at %q: %v", fullPath, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if fullPath == root {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !hasExtension(d.Name()) || !l.Accepts(fullPath) {
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			debug.Log(debug.FS_WALK, "Scan: skipping %q: %v", fullPath, err)
			return nil
		}

		mu.Lock()
		result = append(result, Entry{
			Name:    d.Name(),
			Path:    fullPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, classify("scan", root, err)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	debug.Log(debug.FS, "Scan: %s -> %d files", root, len(result))
	if !start.IsZero() {
		debug.Log(debug.FS_WALK, "Scan: walked %s in %v", root, time.Since(start))
	}
	return result, nil
}

func hasExtension(name string) bool {
	i := strings.LastIndexByte(name, '.')
	return i > 0 && i < len(name)-1
}
