package runtime

import (
	"chat-relay/contract"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeSession is a minimal contract.Session used across the runtime tests.
type fakeSession struct {
	id            string
	identity      string
	authenticated bool
	full          bool

	mu       sync.Mutex
	frames   [][]byte
	tornDown bool
}

func newFakeSession(identity string, authenticated bool) *fakeSession {
	return &fakeSession{id: uuid.NewString(), identity: identity, authenticated: authenticated}
}

func (s *fakeSession) ID() string          { return s.id }
func (s *fakeSession) Identity() string    { return s.identity }
func (s *fakeSession) Authenticated() bool { return s.authenticated }

func (s *fakeSession) Enqueue(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.frames = append(s.frames, frame)
	return true
}

func (s *fakeSession) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tornDown = true
}

func (s *fakeSession) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

func (s *fakeSession) wasTornDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tornDown
}

func TestRegistry_AddAndRemove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	session := newFakeSession("alice", true)

	// Given an empty registry
	req.Zero(registry.Len())

	// When a session is added
	registry.Add(session)

	// Then it is visible in the snapshot
	req.Equal(1, registry.Len())
	req.Contains(registry.Snapshot(), session)

	// When it is removed
	registry.Remove(session.ID())

	// Then nothing is left
	req.Zero(registry.Len())
	req.Empty(registry.Snapshot())
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	session := newFakeSession("alice", true)
	registry.Add(session)

	// Duplicate close events must be a no-op
	registry.Remove(session.ID())
	registry.Remove(session.ID())
	registry.Remove("never-added")

	req.Zero(registry.Len())
}

func TestRegistry_ForEachAuthenticated_SkipsUnauthenticated(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := newFakeSession("alice", true)
	pending := newFakeSession("", false)
	registry.Add(alice)
	registry.Add(pending)

	var visited []string
	registry.ForEachAuthenticated(func(s contract.Session) {
		visited = append(visited, s.ID())
	})

	req.Equal([]string{alice.ID()}, visited)
	req.Equal(1, registry.AuthenticatedLen())
	req.Equal(2, registry.Len())
}

func TestRegistry_CallbackMayRemoveSessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := newFakeSession("alice", true)
	bob := newFakeSession("bob", true)
	registry.Add(alice)
	registry.Add(bob)

	// A callback removing sessions mid-iteration must not deadlock;
	// this is what slow-consumer teardown does during a broadcast.
	registry.ForEachAuthenticated(func(s contract.Session) {
		registry.Remove(s.ID())
	})

	req.Zero(registry.Len())
}

func TestRegistry_ConcurrentAddRemove(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := newFakeSession("user", true)
			registry.Add(session)
			registry.ForEachAuthenticated(func(contract.Session) {})
			registry.Remove(session.ID())
		}()
	}
	wg.Wait()

	require.Zero(t, registry.Len())
}
