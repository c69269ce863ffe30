package tabs

import (
	"sync"

	"github.com/justyntemme/bokuchi/internal/debug"
)

// Store owns the tab collection. All mutations go through Dispatch or
// Transact, which hold the mutex, apply Reduce, and refresh the path index
// before the lock is released. Readers get copies.
type Store struct {
	mu    sync.RWMutex
	state State

	// normalized path -> document id, rebuilt in the same step as every change
	index map[string]string

	listenerMu   sync.Mutex
	listeners    map[int]func(State)
	nextListener int
}

// NewStore creates a store holding initial.
func NewStore(initial State) *Store {
	initial = revalidate(initial.ActiveID, initial.Documents)
	return &Store{
		state:     initial,
		index:     buildIndex(initial.Documents),
		listeners: make(map[int]func(State)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Active returns the active document.
func (s *Store) Active() (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Active()
}

// Document returns the document with id.
func (s *Store) Document(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Find(id)
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Documents)
}

// Lookup answers a duplicate-open check from the path index.
func (s *Store) Lookup(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.index[NormalizePath(path)]
	return id, ok
}

// Dispatch applies actions in order as one step and notifies listeners once
// if anything changed.
func (s *Store) Dispatch(actions ...Action) State {
	return s.Transact(func(State) []Action { return actions })
}

// Transact computes actions from the latest state and applies them without
// releasing the lock in between.
func (s *Store) Transact(fn func(State) []Action) State {
	s.mu.Lock()
	prev := s.state
	next := prev
	for _, a := range fn(prev) {
		next = Reduce(next, a)
		debug.Log(debug.TABS, "Dispatch %T: %d documents, active=%q", a, len(next.Documents), next.ActiveID)
	}
	changed := !sameState(prev, next)
	if changed {
		s.state = next
		s.index = buildIndex(next.Documents)
	}
	snapshot := next.Clone()
	s.mu.Unlock()

	if changed {
		s.notify(snapshot)
	}
	return snapshot
}

// AddIfAbsent adds doc unless a document is already bound to its path, in
// which case that document is activated instead. The check and the add are a
// single step, so two concurrent opens of one path yield one document.
func (s *Store) AddIfAbsent(doc Document) (id string, added bool) {
	s.Transact(func(st State) []Action {
		if existing, ok := ResolveOpen(doc.FilePath, st.Documents); ok {
			id = existing
			return []Action{SetActive{ID: existing}}
		}
		id, added = doc.ID, true
		return []Action{AddDocument{Doc: doc}}
	})
	return id, added
}

// Subscribe registers fn to be called with a copy of the state after every
// change. The returned func unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

func (s *Store) notify(state State) {
	s.listenerMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// sameState reports whether Reduce returned the state unchanged. Reduce
// returns its input for no-ops, so comparing the slice header is enough.
func sameState(a, b State) bool {
	if a.ActiveID != b.ActiveID || len(a.Documents) != len(b.Documents) {
		return false
	}
	if len(a.Documents) == 0 {
		return true
	}
	return &a.Documents[0] == &b.Documents[0]
}
