//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Verifier resolves a short-lived credential to an identity.
// It is the only authentication dependency the broadcast core knows about.
type Verifier interface {
	Verify(token string) (string, error)
}

// Session is the registry-facing view of one client connection.
// The transport layer owns the physical socket; the core only needs the
// identity, the authentication state and a way to push frames outbound.
type Session interface {
	ID() string
	Identity() string
	Authenticated() bool

	// Enqueue offers an encoded frame to the session's outbound buffer.
	// It never blocks. A false return means the buffer is full; frames
	// offered to a closed session are dropped silently.
	Enqueue(frame []byte) bool

	// Teardown forcibly closes the session. Safe to call more than once.
	Teardown()
}

type IRegistry interface {
	Add(session Session)
	Remove(sessionID string)
	ForEachAuthenticated(fn func(Session))
	Snapshot() []Session
}

// ICoordinator accepts inbound chat messages and fans them out to the registry.
type ICoordinator interface {
	Submit(session Session, content string) error
	ReplayFrame() ([]byte, error)
}
