package app

import (
	"context"
	"testing"

	"github.com/justyntemme/bokuchi/internal/config"
	"github.com/justyntemme/bokuchi/internal/tabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseClean(t *testing.T) {
	h := newHarness(t)
	a := h.e.New()
	b := h.e.New()

	res := h.e.Close(context.Background(), b)
	assert.Equal(t, Closed, res.Outcome)
	st := h.e.State()
	require.Len(t, st.Documents, 1)
	assert.Equal(t, a, st.ActiveID)

	res = h.e.Close(context.Background(), "gone")
	assert.Equal(t, CloseFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrUnknownDocument)
}

func TestCloseLastDocument(t *testing.T) {
	h := newHarness(t)
	a := h.e.New()
	h.e.Close(context.Background(), a)

	st := h.e.State()
	require.Len(t, st.Documents, 1, "a fresh untitled document replaces the last one")
	assert.NotEqual(t, a, st.Documents[0].ID)
	assert.Equal(t, st.Documents[0].ID, st.ActiveID)
	assert.Equal(t, tabs.UntitledTitle, st.Documents[0].Title)

	keep := newHarness(t, func(c *config.Config) { c.Tabs.LastTabBehavior = config.LastTabKeepEmpty })
	only := keep.e.New()
	keep.e.Close(context.Background(), only)
	assert.Empty(t, keep.e.State().Documents)
	assert.Empty(t, keep.e.State().ActiveID)
}

func TestCloseModifiedPrompts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.e.New()
	id := h.e.New()
	h.e.UpdateContent(id, "unsaved")

	res := h.e.Close(ctx, id)
	require.Equal(t, ClosePrompt, res.Outcome)
	require.NotNil(t, res.Prompt)
	assert.Len(t, h.e.State().Documents, 2, "prompting must not remove the document")

	res.Prompt.Cancel()
	assert.Len(t, h.e.State().Documents, 2)

	res = h.e.Close(ctx, id)
	res.Prompt.Discard()
	_, ok := h.e.Store().Document(id)
	assert.False(t, ok)
}

func TestClosePromptSave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.e.New()
	id := h.open(t, "/a.md", "one")
	h.e.UpdateContent(id, "two")

	res := h.e.Close(ctx, id)
	require.Equal(t, ClosePrompt, res.Outcome)
	saved := res.Prompt.Save(ctx)
	require.Equal(t, Saved, saved.Outcome)
	assert.Equal(t, "two", h.fs.content("/a.md"))
	_, ok := h.e.Store().Document(id)
	assert.False(t, ok)

	again := res.Prompt.Save(ctx)
	assert.ErrorIs(t, again.Err, ErrPromptAnswered)
}

func TestClosePromptSaveCancelledKeepsDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.e.New()
	h.e.UpdateContent(id, "draft")

	res := h.e.Close(ctx, id)
	saved := res.Prompt.Save(ctx)
	assert.Equal(t, Cancelled, saved.Outcome)
	_, ok := h.e.Store().Document(id)
	assert.True(t, ok)
}

func TestClosePromptSaveConflictClosesAfterResolution(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.e.New()
	id := h.open(t, "/a.md", "one")
	h.e.UpdateContent(id, "mine")
	h.fs.put("/a.md", "theirs")

	res := h.e.Close(ctx, id)
	saved := res.Prompt.Save(ctx)
	require.Equal(t, ConflictDetected, saved.Outcome)
	_, ok := h.e.Store().Document(id)
	require.True(t, ok, "document stays until the conflict is resolved")

	out := saved.Conflict.Cancel(ctx)
	require.Equal(t, Saved, out.Outcome)
	assert.Equal(t, "mine", h.fs.content("/a.md"))
	_, ok = h.e.Store().Document(id)
	assert.False(t, ok)

	assert.ErrorIs(t, saved.Conflict.Reload(ctx).Err, ErrConflictResolved)
}
