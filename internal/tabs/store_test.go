package tabs

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDispatchUpdatesIndex(t *testing.T) {
	s := NewStore(State{})

	s.Dispatch(AddDocument{Doc: doc("a", "/docs/a.md")})
	id, ok := s.Lookup(`\docs\a.md`)
	require.True(t, ok)
	assert.Equal(t, "a", id)

	s.Dispatch(SetFilePath{ID: "a", Path: "/docs/renamed.md"})
	_, ok = s.Lookup("/docs/a.md")
	assert.False(t, ok)
	_, ok = s.Lookup("/docs/renamed.md")
	assert.True(t, ok)

	s.Dispatch(RemoveDocument{ID: "a"})
	_, ok = s.Lookup("/docs/renamed.md")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore(State{})
	s.Dispatch(AddDocument{Doc: doc("a", "/a.md")})

	snap := s.Snapshot()
	snap.Documents[0].Content = "changed outside"

	got, ok := s.Document("a")
	require.True(t, ok)
	assert.Equal(t, "", got.Content)
}

func TestNewStoreRevalidatesActive(t *testing.T) {
	s := NewStore(State{Documents: []Document{doc("a", "")}, ActiveID: "gone"})
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "a", active.ID)
}

func TestStoreNotifiesOnlyOnChange(t *testing.T) {
	s := NewStore(State{})
	var calls int
	var last State
	cancel := s.Subscribe(func(st State) {
		calls++
		last = st
	})

	s.Dispatch(AddDocument{Doc: doc("a", "")})
	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", last.ActiveID)

	s.Dispatch(UpdateContent{ID: "missing", Content: "x"})
	s.Dispatch(SetActive{ID: "a"})
	assert.Equal(t, 1, calls, "no-op dispatches must not notify")

	// several actions, one notification
	s.Dispatch(UpdateContent{ID: "a", Content: "x"}, SetModified{ID: "a", Modified: false})
	assert.Equal(t, 2, calls)
	got, _ := last.Find("a")
	assert.Equal(t, "x", got.Content)
	assert.False(t, got.IsModified)

	cancel()
	s.Dispatch(RemoveDocument{ID: "a"})
	assert.Equal(t, 2, calls)
}

func TestAddIfAbsent(t *testing.T) {
	s := NewStore(State{})

	first := doc("first", "/x/f.md")
	id, added := s.AddIfAbsent(first)
	assert.True(t, added)
	assert.Equal(t, "first", id)

	s.Dispatch(AddDocument{Doc: doc("other", "")})

	dup := doc("dup", `\x\f.md`)
	id, added = s.AddIfAbsent(dup)
	assert.False(t, added)
	assert.Equal(t, "first", id)

	active, _ := s.Active()
	assert.Equal(t, "first", active.ID, "duplicate open activates the existing document")
	assert.Equal(t, 2, s.Len())

	// untitled documents never collide
	_, added = s.AddIfAbsent(doc("u1", ""))
	assert.True(t, added)
	_, added = s.AddIfAbsent(doc("u2", ""))
	assert.True(t, added)
}

func TestAddIfAbsentConcurrent(t *testing.T) {
	s := NewStore(State{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddIfAbsent(doc(fmt.Sprintf("d%d", i), "/same/path.md"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, s.Len())
}
