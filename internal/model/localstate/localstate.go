// Package localstate persists the small client-side cache that
// survives restarts: credential token, profile copy and the last
// category filter. It mirrors the et_ key namespace of the backend's
// web client and is never authoritative; the list itself is always
// re-fetched at session start.
package localstate

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"expensetrack/companion-bot/internal/entity/session"
)

type config interface {
	File() string
}

type state struct {
	Token          string           `json:"et_token,omitempty"`
	User           *session.Profile `json:"et_user,omitempty"`
	CategoryFilter string           `json:"et_categoryFilter,omitempty"`
}

type Store struct {
	path  string
	state state
}

// New loads the cache file if it exists; a missing file is an empty
// cache, not an error.
func New(cfg config) (*Store, error) {
	s := &Store{path: cfg.File()}

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading state file")
	}
	if err = json.Unmarshal(raw, &s.state); err != nil {
		return nil, errors.Wrap(err, "parsing state file")
	}
	return s, nil
}

// Session rebuilds the cached session. An incomplete cache (token
// without profile or the reverse) counts as signed out.
func (s *Store) Session() session.Session {
	if s.state.Token == "" || s.state.User == nil {
		return session.None()
	}
	sess, err := session.New(s.state.Token, *s.state.User)
	if err != nil {
		return session.None()
	}
	return sess
}

func (s *Store) SaveSession(sess session.Session) error {
	if !sess.IsAuthenticated() {
		return s.ClearSession()
	}
	profile := sess.Profile()
	s.state.Token = sess.Token()
	s.state.User = &profile
	return s.flush()
}

func (s *Store) ClearSession() error {
	s.state.Token = ""
	s.state.User = nil
	return s.flush()
}

// CategoryFilter defaults to "all" when unset.
func (s *Store) CategoryFilter() string {
	if s.state.CategoryFilter == "" {
		return "all"
	}
	return s.state.CategoryFilter
}

func (s *Store) SaveCategoryFilter(filter string) error {
	s.state.CategoryFilter = filter
	return s.flush()
}

func (s *Store) flush() error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return errors.Wrap(err, "marshalling state")
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "creating state dir")
	}
	return errors.Wrap(os.WriteFile(s.path, raw, 0o600), "writing state file")
}
