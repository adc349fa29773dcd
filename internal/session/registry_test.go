package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neontune/internal/music"
	"neontune/internal/player"
)

// memStore is an in-memory Store used by the tests.
type memStore struct {
	mu     sync.Mutex
	states map[string]player.State
	loads  int
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]player.State)}
}

func (m *memStore) Load(ctx context.Context, id string) (player.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	st, ok := m.states[id]
	if !ok {
		return player.State{}, ErrSessionNotFound
	}
	return st, nil
}

func (m *memStore) Save(ctx context.Context, id string, state player.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = state
	return nil
}

func (m *memStore) get(id string) (player.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	return st, ok
}

func TestRegistryCreateAndGet(t *testing.T) {
	store := newMemStore()
	reg := NewRegistry(store)

	sess, err := reg.Create(context.Background())
	require.NoError(t, err)
	assert.Len(t, sess.ID, 36)

	_, saved := store.get(sess.ID)
	assert.True(t, saved, "new sessions are persisted")

	got, err := reg.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 0, store.loads)
}

func TestRegistryLoadsFromStore(t *testing.T) {
	store := newMemStore()
	state := player.New()
	state.SetPlaylist([]music.Track{{ID: "aaaaaaaaaaa"}})
	state.SelectTrack(music.Track{ID: "aaaaaaaaaaa"})
	require.NoError(t, store.Save(context.Background(), sessionID, state.State()))

	reg := NewRegistry(store)
	sess, err := reg.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, state.State(), sess.State())

	again, err := reg.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Same(t, sess, again)
	assert.Equal(t, 1, store.loads)
}

func TestRegistryNotFound(t *testing.T) {
	for name, reg := range map[string]*Registry{
		"memory only": NewRegistry(nil),
		"with store":  NewRegistry(newMemStore()),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Get(context.Background(), sessionID)
			assert.ErrorIs(t, err, ErrSessionNotFound)

			_, err = reg.Get(context.Background(), "not-a-uuid")
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestSessionApplyIsSerialized(t *testing.T) {
	sess, err := NewRegistry(nil).Create(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Apply(func(p *player.Player) {
				p.AddToQueue(music.Track{ID: "aaaaaaaaaaa"})
			})
		}()
	}
	wg.Wait()

	assert.Len(t, sess.State().Queue, 50)
}
