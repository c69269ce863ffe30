package app

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/justyntemme/bokuchi/internal/config"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/recent"
	"github.com/justyntemme/bokuchi/internal/store"
	"github.com/stretchr/testify/require"
)

type writeCall struct {
	path    string
	content string
}

// memFS is an in-memory fs.Gateway. Every write bumps a logical clock used
// as the file's mtime.
type memFS struct {
	mu     sync.Mutex
	files  map[string]string
	mtimes map[string]int64
	clock  int64
	writes []writeCall
	reads  int

	readErr  map[string]error
	writeErr error
	hashErr  error

	openPath string
	openErr  error
	savePath string
	saveErr  error

	// onWrite runs after a write lands, outside the lock.
	onWrite func(path string)
}

var _ fs.Gateway = (*memFS)(nil)

func newMemFS() *memFS {
	return &memFS{
		files:   make(map[string]string),
		mtimes:  make(map[string]int64),
		readErr: make(map[string]error),
	}
}

// put changes a file behind the editor's back.
func (m *memFS) put(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock++
	m.files[path] = content
	m.mtimes[path] = m.clock
}

func (m *memFS) del(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

func (m *memFS) content(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[path]
}

func (m *memFS) writeCalls() []writeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]writeCall(nil), m.writes...)
}

func (m *memFS) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *memFS) ReadFile(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if err := m.readErr[path]; err != nil {
		return "", err
	}
	c, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, fs.ErrNotFound)
	}
	return c, nil
}

func (m *memFS) WriteFile(ctx context.Context, path, content string) error {
	m.mu.Lock()
	if m.writeErr != nil {
		m.mu.Unlock()
		return m.writeErr
	}
	m.clock++
	m.files[path] = content
	m.mtimes[path] = m.clock
	m.writes = append(m.writes, writeCall{path, content})
	hook := m.onWrite
	m.mu.Unlock()

	if hook != nil {
		hook(path)
	}
	return nil
}

func (m *memFS) HashFile(ctx context.Context, path string) (fs.HashInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashErr != nil {
		return fs.HashInfo{}, m.hashErr
	}
	c, ok := m.files[path]
	if !ok {
		return fs.HashInfo{}, fmt.Errorf("hash %s: %w", path, fs.ErrNotFound)
	}
	return fs.HashInfo{Hash: fs.HashContent(c), Size: int64(len(c)), ModTime: m.mtimes[path]}, nil
}

func (m *memFS) OpenFilePicker(ctx context.Context) (string, string, error) {
	m.mu.Lock()
	path, err := m.openPath, m.openErr
	m.mu.Unlock()
	if err != nil {
		return "", "", err
	}
	if path == "" {
		return "", "", fs.ErrCancelled
	}
	content, err := m.ReadFile(ctx, path)
	return path, content, err
}

func (m *memFS) SaveFilePicker(ctx context.Context, content, suggested string) (string, error) {
	m.mu.Lock()
	path, err := m.savePath, m.saveErr
	m.mu.Unlock()
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fs.ErrCancelled
	}
	if err := m.WriteFile(ctx, path, content); err != nil {
		return "", err
	}
	return path, nil
}

type memRecent struct {
	mu      sync.Mutex
	entries []recent.Entry
}

func (r *memRecent) RecentFiles(ctx context.Context) ([]recent.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recent.Entry(nil), r.entries...), nil
}

func (r *memRecent) ReplaceRecent(ctx context.Context, entries []recent.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
	return nil
}

// countingSettings counts writes so tests can observe debouncing.
type countingSettings struct {
	*store.Memory
	mu     sync.Mutex
	writes int
}

func newCountingSettings() *countingSettings {
	return &countingSettings{Memory: store.NewMemory()}
}

func (s *countingSettings) SetSetting(key, value string) {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	s.Memory.SetSetting(key, value)
}

func (s *countingSettings) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type harness struct {
	e        *Editor
	fs       *memFS
	settings *countingSettings
	recent   *memRecent
}

func newHarness(t *testing.T, tweak ...func(*config.Config)) *harness {
	t.Helper()
	cfg := *config.DefaultConfig()
	for _, fn := range tweak {
		fn(&cfg)
	}
	h := &harness{fs: newMemFS(), settings: newCountingSettings(), recent: &memRecent{}}
	h.e = NewEditor(Options{
		FS:       h.fs,
		Settings: h.settings,
		Recent:   recent.NewManager(h.recent, cfg.Recent.MaxEntries, cfg.Recent.PreviewChars),
		Config:   cfg,
	})
	return h
}

// open puts a file on the fake disk and opens it.
func (h *harness) open(t *testing.T, path, content string) string {
	t.Helper()
	h.fs.put(path, content)
	id, err := h.e.OpenPath(context.Background(), path)
	require.NoError(t, err)
	return id
}

func (h *harness) events() []Event {
	var out []Event
	for {
		select {
		case ev := <-h.e.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}
