// Package session holds all per-user engine state: suggestion queues, the
// last shown item and busy flags. State is keyed by user identity in a
// concurrency-safe map; nothing here is global or shared across users.
package session

import (
	"sync"

	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/taste"
)

// Source records how a queue was produced, which decides how it refills.
type Source string

const (
	SourceSearch Source = "search"
	SourceRandom Source = "random"
)

// Op names a multi-step operation guarded by a busy flag.
type Op string

const (
	OpSearch Op = "search"
	OpRandom Op = "random"
)

// Meta is the retrieval context a queue was built from, kept so an
// exhausted queue can refill with the same filters.
type Meta struct {
	Source   Source
	Terms    []string
	Category taste.Category
	Explicit bool
	City     string
	Primary  string
}

type queue struct {
	items  []catalog.Item
	cursor int
	meta   Meta
}

// Session is the state of one user's conversation. All methods are safe
// for concurrent use.
type Session struct {
	mu     sync.Mutex
	queues map[catalog.Kind]*queue
	last   map[catalog.Kind]int64
	busy   map[Op]bool
}

func newSession() *Session {
	return &Session{
		queues: make(map[catalog.Kind]*queue),
		last:   make(map[catalog.Kind]int64),
		busy:   make(map[Op]bool),
	}
}

// StoreQueue replaces any existing queue for the kind with a fresh list
// and cursor 0. Queues are replaced, never merged.
func (s *Session) StoreQueue(kind catalog.Kind, items []catalog.Item, meta Meta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[kind] = &queue{items: append([]catalog.Item(nil), items...), meta: meta}
}

// Current returns the item at the cursor. A cursor at or past the end of
// the list (including one pushed out of range by concurrent mutation)
// reads as empty, which callers treat as a refill trigger.
func (s *Session) Current(kind catalog.Kind) (catalog.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[kind]
	if !ok || q.cursor < 0 || q.cursor >= len(q.items) {
		return catalog.Item{}, false
	}
	return q.items[q.cursor], true
}

// Advance moves the cursor past the current item.
func (s *Session) Advance(kind catalog.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[kind]; ok && q.cursor <= len(q.items) {
		q.cursor++
	}
}

// Meta returns the retrieval context of the queue, if one exists.
func (s *Session) Meta(kind catalog.Kind) (Meta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[kind]
	if !ok {
		return Meta{}, false
	}
	return q.meta, true
}

// Last returns the identifier of the most recently shown item for the
// kind. Used purely to bias refills against immediate repetition.
func (s *Session) Last(kind catalog.Kind) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.last[kind]
	return id, ok
}

// SetLast records the item just shown.
func (s *Session) SetLast(kind catalog.Kind, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[kind] = id
}

// TryAcquire sets the busy flag for op. It reports false when the flag is
// already held, in which case the duplicate request must no-op.
func (s *Session) TryAcquire(op Op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[op] {
		return false
	}
	s.busy[op] = true
	return true
}

// Release clears the busy flag. It must run on every exit path of the
// operation that acquired it.
func (s *Session) Release(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, op)
}

// Manager owns the user -> session map. Sessions are created lazily and
// never handed out by copy.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Get returns the session for a user, creating it on first use.
func (m *Manager) Get(user int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[user]
	if !ok {
		s = newSession()
		m.sessions[user] = s
	}
	return s
}

// Drop discards a user's session, e.g. when the conversation ends.
func (m *Manager) Drop(user int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, user)
}
