// Package session keeps one server-side player per listener and exposes it
// over HTTP. Every mutation is persisted and announced as an event.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"neontune/internal/player"
)

var ErrSessionNotFound = errors.New("session not found")

// Session guards one Player. All access goes through Apply.
type Session struct {
	ID string

	mu     sync.Mutex
	player *player.Player
}

// Apply runs fn with exclusive access to the player and returns the
// resulting snapshot.
func (s *Session) Apply(fn func(p *player.Player)) player.State {
	return s.Update(fn, nil)
}

// Update is Apply followed by commit, both under the session lock, so
// snapshots reach commit in the order they were taken.
func (s *Session) Update(fn func(p *player.Player), commit func(state player.State)) player.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		fn(s.player)
	}
	state := s.player.State()
	if commit != nil {
		commit(state)
	}
	return state
}

func (s *Session) State() player.State {
	return s.Apply(nil)
}

// Registry holds live sessions in memory and falls back to the store for
// sessions created by an earlier process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    Store
}

// NewRegistry returns a registry; store may be nil for memory-only sessions.
func NewRegistry(store Store) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
	}
}

func (r *Registry) Create(ctx context.Context) (*Session, error) {
	s := &Session{
		ID:     uuid.NewString(),
		player: player.New(),
	}

	if r.store != nil {
		if err := r.store.Save(ctx, s.ID, s.State()); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	if r.store == nil {
		return nil, ErrSessionNotFound
	}
	state, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have loaded it meanwhile.
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	s = &Session{ID: id, player: player.Restore(state)}
	r.sessions[id] = s
	return s, nil
}
