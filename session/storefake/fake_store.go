package storefake

import (
	"sync"

	"github.com/bizfinhq/bizfin-go/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session.Store for tests. It counts writes so
// tests can assert on store traffic.
type FakeStore struct {
	lock       sync.RWMutex
	current    session.Session
	SetCalls   int
	ClearCalls int
	SetErr     error
	ClearErr   error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Get() session.Session {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.current
}

func (fs *FakeStore) Set(s session.Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.SetCalls++
	if fs.SetErr != nil {
		return fs.SetErr
	}
	fs.current = s
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.ClearCalls++
	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.current = session.Session{}
	return nil
}
