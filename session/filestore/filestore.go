// Package filestore persists the session as a small JSON document on disk,
// the client-side equivalent of the browser's durable storage. Tokens are
// stored under fixed keys and the profile as a serialized JSON string, so
// the layout survives schema additions to the profile.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/bizfinhq/bizfin-go/session"
)

// stored is the on-disk layout. The user profile is kept as an opaque string
// deliberately: a profile that fails to decode must not invalidate the tokens.
type stored struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         string `json:"user"`
}

// Store reads and writes the session file. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ session.Store = (*Store)(nil)

// New creates a file store rooted at path. The file is created lazily on the
// first Set.
func New(path string) *Store {
	return &Store{path: path}
}

// Get returns the persisted session, or the zero Session if the file is
// missing or unreadable. Corruption is logged and treated as "no session".
func (s *Store) Get() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return session.Session{}
	}

	var layout stored
	if err := json.Unmarshal(data, &layout); err != nil {
		log.Err(err).Str("path", s.path).Msg("Session file is corrupt, treating as no session")
		return session.Session{}
	}
	if layout.AccessToken == "" {
		return session.Session{}
	}

	expiresAt, err := session.ExpiryFromToken(layout.AccessToken)
	if err != nil {
		log.Err(err).Msg("Stored access token is unreadable, treating as no session")
		return session.Session{}
	}

	var user session.User
	if layout.User != "" {
		if err := json.Unmarshal([]byte(layout.User), &user); err != nil {
			log.Err(err).Msg("Stored profile is unreadable, keeping tokens without a profile")
			user = session.User{}
		}
	}

	return session.Session{
		AccessToken:  layout.AccessToken,
		RefreshToken: layout.RefreshToken,
		User:         user,
		ExpiresAt:    expiresAt,
	}
}

// Set persists all fields in one write. The file is written to a temporary
// sibling and renamed into place so readers never observe a partial session.
func (s *Store) Set(sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return errors.Wrap(err, "[filestore.Set] marshal profile")
	}

	data, err := json.MarshalIndent(stored{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         string(userJSON),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore.Set] marshal session")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[filestore.Set] create session directory")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "[filestore.Set] create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.Set] write temp file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.Set] chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore.Set] close temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "[filestore.Set] replace session file")
	}
	return nil
}

// Clear erases the session wholesale. Clearing an absent session is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[filestore.Clear] remove session file")
	}
	return nil
}
