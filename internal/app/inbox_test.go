package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInbox(h *harness) *Inbox {
	in := NewInbox(h.e)
	in.Validate = func(path string) error {
		if h.fs.content(path) == "" {
			return fs.ErrNotFound
		}
		return nil
	}
	return in
}

func titles(h *harness) []string {
	var out []string
	for _, d := range h.e.State().Documents {
		out = append(out, d.Title)
	}
	return out
}

func TestInboxBuffersUntilReady(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fs.put("/one.md", "1")
	h.fs.put("/two.md", "2")
	in := newTestInbox(h)

	assert.True(t, in.Signal(ctx, "/two.md"))
	assert.True(t, in.Signal(ctx, "/one.md"))
	assert.Empty(t, h.e.State().Documents)

	in.MarkReady(ctx)
	assert.Equal(t, []string{"two.md", "one.md"}, titles(h))

	h.fs.put("/three.md", "3")
	assert.True(t, in.Signal(ctx, "/three.md"))
	assert.Len(t, h.e.State().Documents, 3)
}

func TestInboxDebouncesSamePath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fs.put("/a.md", "a")
	h.fs.put("/b.md", "b")
	in := newTestInbox(h)
	now := time.Unix(0, 0)
	in.debouncer.now = func() time.Time { return now }
	in.MarkReady(ctx)

	assert.True(t, in.Signal(ctx, "/a.md"))
	assert.False(t, in.Signal(ctx, `\a.md`), "same path with other separators")
	assert.True(t, in.Signal(ctx, "/b.md"))

	now = now.Add(3 * time.Second)
	h.e.Close(ctx, h.e.State().Documents[0].ID)
	assert.True(t, in.Signal(ctx, "/a.md"))
	assert.Equal(t, []string{"b.md", "a.md"}, titles(h))
}

func TestInboxRejectsInvalid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := newTestInbox(h)
	in.MarkReady(ctx)

	assert.False(t, in.Signal(ctx, ""))
	assert.False(t, in.Signal(ctx, "/missing.md"))
	assert.Empty(t, h.e.State().Documents)
}

func TestValidateOpenPath(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "a.MD")
	bin := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(md, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(bin, []byte("x"), 0o644))
	exts := []string{".md", ".txt"}

	assert.NoError(t, validateOpenPath(md, exts))
	assert.ErrorIs(t, validateOpenPath(bin, exts), fs.ErrUnsupportedType)
	assert.ErrorIs(t, validateOpenPath(dir, exts), fs.ErrUnsupportedType)
	assert.ErrorIs(t, validateOpenPath(filepath.Join(dir, "none.md"), exts), fs.ErrNotFound)

	bare := filepath.Join(dir, "README")
	require.NoError(t, os.WriteFile(bare, []byte("x"), 0o644))
	assert.ErrorIs(t, validateOpenPath(bare, exts), fs.ErrUnsupportedType)
	assert.True(t, fs.NewLocal(nil).Accepts(bare), "the gateway itself still reads such files")
}

func TestInboxResolvesRelativePaths(t *testing.T) {
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	wd, err := os.Getwd()
	require.NoError(t, err)
	abs := filepath.Join(wd, "notes.md")

	h := newHarness(t)
	ctx := context.Background()
	h.fs.put(abs, "# notes")
	in := newTestInbox(h)
	now := time.Unix(0, 0)
	in.debouncer.now = func() time.Time { return now }
	in.MarkReady(ctx)

	for _, p := range []string{"notes.md", "./notes.md", abs} {
		assert.True(t, in.Signal(ctx, p), p)
		now = now.Add(time.Minute)
	}

	docs := h.e.State().Documents
	require.Len(t, docs, 1)
	assert.Equal(t, abs, docs[0].FilePath)

	id, err := h.e.OpenPath(ctx, "sub/../notes.md")
	require.NoError(t, err)
	assert.Equal(t, docs[0].ID, id)
}
