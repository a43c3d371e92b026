package client

// State is the lifecycle position of a session.
//
//	Unauthenticated → Authenticating → Authenticated → Closed
//	                        └────────→ Degraded (login got an error reply) → Closed
//
// There is no re-authentication; build a new client instead.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateDegraded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateDegraded:
		return "degraded"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
