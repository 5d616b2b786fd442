package auth

// State is the manager's internal position in the session lifecycle.
type State string

const (
	StateNoSession      State = "no_session"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateRefreshing     State = "refreshing"

	// StateStale: the store still holds a session, but its profile could
	// not be confirmed because the server errored. The tokens may be good;
	// a later hydration or refresh decides.
	StateStale State = "stale"
)

// Status is the read-only view the UI layer renders from. Only
// StatusAuthenticated permits protected views; everything else renders a
// login prompt or a loading indicator.
type Status string

const (
	// StatusIdle: no session exists and none was attempted. Also the state
	// after a clean logout.
	StatusIdle Status = "idle"

	// StatusPending: a login or hydration is in flight; render a loading
	// indicator, not a redirect.
	StatusPending Status = "pending"

	// StatusAuthenticated: a valid session exists.
	StatusAuthenticated Status = "authenticated"

	// StatusFailed: the session was torn down after a refresh or hydration
	// failure; the user must authenticate again.
	StatusFailed Status = "failed"
)
