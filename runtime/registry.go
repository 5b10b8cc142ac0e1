package runtime

import (
	"chat-relay/contract"
	"sync"
)

// Registry is the set of live connections, keyed by session id.
// One instance is constructed per server process and threaded through
// constructors; there is no package-level state.
//
// Sessions are added as soon as the transport is accepted, before
// authentication, so the liveness protocol covers idle unauthenticated
// connections too. Broadcast only ever reaches sessions whose state
// machine reports Authenticated.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.Session)}
}

func (r *Registry) Add(session contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

// Remove deletes a session from the registry. Removing an id that is
// already gone is a no-op, so duplicate close events are harmless.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// ForEachAuthenticated applies fn to every authenticated session in one
// consistent snapshot of membership. The snapshot is taken under the read
// lock and fn runs outside it, so a callback may remove sessions (slow
// consumer teardown) without deadlocking.
func (r *Registry) ForEachAuthenticated(fn func(contract.Session)) {
	for _, session := range r.Snapshot() {
		if session.Authenticated() {
			fn(session)
		}
	}
}

func (r *Registry) Snapshot() []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]contract.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		snapshot = append(snapshot, session)
	}
	return snapshot
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) AuthenticatedLen() int {
	count := 0
	for _, session := range r.Snapshot() {
		if session.Authenticated() {
			count++
		}
	}
	return count
}
