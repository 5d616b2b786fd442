package transport

import (
	"net/http"
	"sync"
)

// registrations tracks which clients already carry a session Transport.
// Attaching is guarded process-wide so that re-running an init path can
// never stack a second interceptor onto the same client.
var (
	registrationsMu sync.Mutex
	registrations   = make(map[*http.Client]*Transport)
)

// Attach installs a session Transport on the client, wrapping whatever
// transport it already had. Attaching to an already-attached client is a
// no-op returning the existing Transport.
func Attach(client *http.Client, tokens TokenReader, refresher Refresher) *Transport {
	registrationsMu.Lock()
	defer registrationsMu.Unlock()

	if existing, ok := registrations[client]; ok {
		return existing
	}

	t := New(tokens, refresher, client.Transport)
	client.Transport = t
	registrations[client] = t
	return t
}

// Detach removes the session Transport from the client, restoring its
// previous transport. Detaching an unattached client is a no-op.
func Detach(client *http.Client) {
	registrationsMu.Lock()
	defer registrationsMu.Unlock()

	t, ok := registrations[client]
	if !ok {
		return
	}
	client.Transport = t.base
	delete(registrations, client)
}

// Attached reports whether the client currently carries a session Transport.
func Attached(client *http.Client) bool {
	registrationsMu.Lock()
	defer registrationsMu.Unlock()
	_, ok := registrations[client]
	return ok
}
