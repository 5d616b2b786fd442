package session

// Store is the durable holder of the Session. Implementations must make Get
// infallible (a missing or unreadable session reads as the zero Session),
// make Set overwrite all fields together, and make Clear idempotent.
//
// Only the lifecycle manager writes to the store. The HTTP transport reads
// the current token through the manager on every request, so there is no
// separate header state to keep in sync with stored tokens.
type Store interface {
	Get() Session
	Set(s Session) error
	Clear() error
}
