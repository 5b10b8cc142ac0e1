package domain

// SessionState is the lifecycle of one client connection.
//
// Unauthenticated is the initial state. Authenticated is reached exactly
// once, when the credential check succeeds. Closed is terminal and
// reachable from either prior state. A session carries a non-empty
// identity if and only if it left Unauthenticated.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticated
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
