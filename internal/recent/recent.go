// Package recent tracks recently opened files, most recent first.
package recent

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/justyntemme/bokuchi/internal/debug"
)

// DefaultMaxEntries caps the list when no limit is configured.
const DefaultMaxEntries = 10

// DefaultPreviewChars is the preview length when none is configured.
const DefaultPreviewChars = 100

// Entry is one recently opened or saved file.
type Entry struct {
	ID           string     `json:"id"`
	FilePath     string     `json:"filePath"`
	FileName     string     `json:"fileName"`
	LastOpened   time.Time  `json:"lastOpened"`
	OpenCount    int        `json:"openCount"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	FileSize     int64      `json:"fileSize,omitempty"`
	Preview      string     `json:"preview,omitempty"`
}

// Visit describes an open or save to record.
type Visit struct {
	Path    string
	Content string
	Size    int64
	ModTime time.Time // zero when unknown
	At      time.Time
}

func normalize(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

// Upsert records v in list, matching existing entries by normalized path.
// The result is sorted by LastOpened descending and holds at most max
// entries. list is not modified.
func Upsert(list []Entry, v Visit, max, previewChars int) []Entry {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}

	out := make([]Entry, 0, len(list)+1)
	var entry *Entry
	key := normalize(v.Path)
	for _, e := range list {
		if entry == nil && normalize(e.FilePath) == key {
			entry = &e
			continue
		}
		out = append(out, e)
	}
	if entry == nil {
		entry = &Entry{ID: uuid.NewString(), FilePath: v.Path}
	}

	entry.FilePath = v.Path
	entry.FileName = filepath.Base(key)
	entry.LastOpened = v.At
	entry.OpenCount++
	if v.Size > 0 || entry.FileSize == 0 {
		entry.FileSize = v.Size
	}
	if !v.ModTime.IsZero() {
		mt := v.ModTime
		entry.LastModified = &mt
	}
	if v.Content != "" {
		entry.Preview = Preview(v.Content, previewChars)
	}
	out = append(out, *entry)

	sort.SliceStable(out, func(i, j int) bool { return out[i].LastOpened.After(out[j].LastOpened) })
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// Remove drops the entry for path.
func Remove(list []Entry, path string) []Entry {
	key := normalize(path)
	out := make([]Entry, 0, len(list))
	for _, e := range list {
		if normalize(e.FilePath) != key {
			out = append(out, e)
		}
	}
	return out
}

// Preview joins the non-blank lines of content with spaces and returns up to
// n runes of the result.
func Preview(content string, n int) string {
	var parts []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	joined := strings.Join(parts, " ")

	runes := []rune(joined)
	if len(runes) <= n {
		return joined
	}
	return string(runes[:n])
}

// Repository persists the list.
type Repository interface {
	RecentFiles(ctx context.Context) ([]Entry, error)
	ReplaceRecent(ctx context.Context, entries []Entry) error
}

// Manager applies Upsert/Remove against a repository. Failures are logged
// and never returned: recent files are best-effort.
type Manager struct {
	mu           sync.Mutex
	repo         Repository
	max          int
	previewChars int
	now          func() time.Time
}

// NewManager creates a manager keeping at most max entries.
func NewManager(repo Repository, max, previewChars int) *Manager {
	return &Manager{repo: repo, max: max, previewChars: previewChars, now: time.Now}
}

// Record upserts a visit to path.
func (m *Manager) Record(ctx context.Context, v Visit) {
	if m == nil || m.repo == nil || v.Path == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if v.At.IsZero() {
		v.At = m.now()
	}
	list, err := m.repo.RecentFiles(ctx)
	if err != nil {
		debug.Log(debug.STORE, "recent: load failed: %v", err)
		return
	}
	if err := m.repo.ReplaceRecent(ctx, Upsert(list, v, m.max, m.previewChars)); err != nil {
		debug.Log(debug.STORE, "recent: save failed: %v", err)
	}
}

// Forget removes path from the list.
func (m *Manager) Forget(ctx context.Context, path string) {
	if m == nil || m.repo == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.repo.RecentFiles(ctx)
	if err != nil {
		debug.Log(debug.STORE, "recent: load failed: %v", err)
		return
	}
	if err := m.repo.ReplaceRecent(ctx, Remove(list, path)); err != nil {
		debug.Log(debug.STORE, "recent: save failed: %v", err)
	}
}

// List returns the stored entries, or nil on error.
func (m *Manager) List(ctx context.Context) []Entry {
	if m == nil || m.repo == nil {
		return nil
	}
	list, err := m.repo.RecentFiles(ctx)
	if err != nil {
		debug.Log(debug.STORE, "recent: load failed: %v", err)
		return nil
	}
	return list
}
