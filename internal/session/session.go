// package session holds the client's authentication state.
//
// A [Store] is created once at startup from durable local storage and shared by reference with every
// consumer. It has two states, logged out and logged in, and pushes every change to its observers.
package session

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/flix/internal/shared"
)

// Local storage keys holding the persisted session material.
const (
	KeyToken    = "token"
	KeyUsername = "username"
)

// Session is a value snapshot of the authentication state.
//
// LoggedIn is true iff both Username and Token are non-empty.
type Session struct {
	LoggedIn bool   `json:"loggedIn"`
	Username string `json:"username,omitempty"`
	Token    string `json:"-"`
}

func newSession(username, token string) Session {
	return Session{LoggedIn: username != "" && token != "", Username: username, Token: token}
}

// Storage is the durable key/value store the session is persisted to.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(values map[string]string) error
	Remove(keys ...string) error
}

// Store owns the current [Session].
//
// Observers are called synchronously, in no particular order, after each Login or Logout.
// They must not call Login or Logout themselves.
type Store struct {
	storage Storage
	logger  *log.Logger

	mu      sync.RWMutex
	current Session

	// emitMu serializes state changes with their notifications so observers see them in order.
	emitMu    sync.Mutex
	observers map[string]func(Session)
}

// NewStore restores the session from storage. Missing or unreadable keys start the store logged out.
func NewStore(storage Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Store{
		storage:   storage,
		logger:    logger.With("component", "session"),
		observers: make(map[string]func(Session)),
	}

	token, _, err := storage.Get(KeyToken)
	if err != nil {
		s.logger.Warn("could not read stored token", "error", err)
	}
	username, _, err := storage.Get(KeyUsername)
	if err != nil {
		s.logger.Warn("could not read stored username", "error", err)
	}

	s.current = newSession(username, token)
	if !s.current.LoggedIn {
		s.current = Session{}
	}

	s.logger.Debug("session restored", "logged_in", s.current.LoggedIn, "username", s.current.Username)
	return s
}

// Current returns the latest session snapshot.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Login stores the credentials and notifies observers. Re-login overwrites the previous credentials.
//
// The in-memory session and notifications are updated even when persisting fails; the returned error
// only reports the storage failure.
func (s *Store) Login(username, token string) error {
	if username == "" || token == "" {
		return fmt.Errorf("%w: username and token are required", shared.ErrInvalidCredentials)
	}

	err := s.transition(newSession(username, token), func() error {
		return s.storage.Set(map[string]string{KeyToken: token, KeyUsername: username})
	})
	if err != nil {
		s.logger.Error("failed to persist session", "error", err)
	}

	s.logger.Info("logged in", "username", username)
	return err
}

// Logout clears stored credentials and notifies observers. Calling it while logged out re-emits the
// unchanged state.
func (s *Store) Logout() error {
	err := s.transition(Session{}, func() error {
		return s.storage.Remove(KeyToken, KeyUsername)
	})
	if err != nil {
		s.logger.Error("failed to clear stored session", "error", err)
	}

	s.logger.Info("logged out")
	return err
}

// Expire logs out only when token is still the session token. It reports whether the session ended.
// A rejection that arrives after a newer login leaves the newer session alone.
func (s *Store) Expire(token string) (bool, error) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if current := s.Current(); !current.LoggedIn || current.Token != token {
		s.logger.Debug("ignoring rejection of a replaced token")
		return false, nil
	}

	err := s.transitionLocked(Session{}, func() error {
		return s.storage.Remove(KeyToken, KeyUsername)
	})
	if err != nil {
		s.logger.Error("failed to clear stored session", "error", err)
	}

	s.logger.Info("session expired")
	return true, err
}

// transition persists, swaps the in-memory session and notifies observers as one step. A persist
// failure is returned but does not stop the swap.
func (s *Store) transition(next Session, persist func() error) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	return s.transitionLocked(next, persist)
}

// transitionLocked is transition with emitMu held.
func (s *Store) transitionLocked(next Session, persist func() error) error {
	err := persist()

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	for _, fn := range s.observers {
		fn(next)
	}
	return err
}

// Observe registers fn, calls it immediately with the current session, then once per later change.
// The returned function detaches fn and is safe to call more than once.
func (s *Store) Observe(fn func(Session)) (cancel func()) {
	id := shared.GenerateID()

	s.emitMu.Lock()
	s.observers[id] = fn
	fn(s.Current())
	s.emitMu.Unlock()

	return func() {
		s.emitMu.Lock()
		delete(s.observers, id)
		s.emitMu.Unlock()
	}
}

// Token implements [oauth2.TokenSource] so HTTP clients can authenticate with the session token.
func (s *Store) Token() (*oauth2.Token, error) {
	current := s.Current()
	if !current.LoggedIn {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: current.Token, TokenType: "Bearer"}, nil
}
