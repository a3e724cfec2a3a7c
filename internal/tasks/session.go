package tasks

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
)

// Session holds the identity of the signed in user. One Session is shared by every view;
// an empty username means nobody is signed in.
//
// Views that cache per-user state watch [Session.Generation], which changes on every
// sign in and sign out.
type Session struct {
	mu         sync.RWMutex
	backend    services.Backend
	store      SessionStore
	logger     *log.Logger
	username   string
	generation uint64
}

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithSessionStore persists sign in and sign out.
func WithSessionStore(store SessionStore) SessionOption {
	return func(s *Session) { s.store = store }
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l *log.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates a signed out session.
func NewSession(backend services.Backend, opts ...SessionOption) *Session {
	s := &Session{
		backend: backend,
		logger:  shared.WithLogger(shared.NewLogger(nil), "component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init asks the backend who owns the current cookie session. Any failure leaves the
// session signed out; the error is returned for logging only.
func (s *Session) Init(ctx context.Context) error {
	identity, err := s.backend.WhoAmI(ctx)
	if err != nil {
		s.set("")
		return err
	}
	if !identity.Authenticated || identity.Username == "" {
		s.set("")
		return nil
	}
	s.set(identity.Username)
	return nil
}

// Login signs in. A refused login is reported in the result, not as an error.
func (s *Session) Login(ctx context.Context, username, password string) (services.AuthResult, error) {
	if err := shared.ValidateCredentials(username, password); err != nil {
		return services.AuthResult{}, err
	}

	res, err := s.backend.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return res, err
	}
	if res.OK {
		s.signedIn(ctx, res.Username)
	}
	return res, nil
}

// Register validates the form locally, creates the account and signs in as the new user.
// Validation failures never reach the backend.
func (s *Session) Register(ctx context.Context, username, password, confirm string) (services.AuthResult, error) {
	if err := shared.ValidateRegistration(username, password, confirm); err != nil {
		return services.AuthResult{}, err
	}

	res, err := s.backend.Register(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return res, err
	}
	if res.OK {
		s.signedIn(ctx, res.Username)
	}
	return res, nil
}

// Logout ends the session. Local state is cleared even when the backend call fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.backend.Logout(ctx)
	s.set("")
	if s.store != nil {
		if storeErr := s.store.ClearSession(ctx); storeErr != nil {
			s.logger.Warn("failed to clear stored session", "error", storeErr)
		}
	}
	return err
}

// Username of the signed in user, or "".
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool { return s.Username() != "" }

// Generation changes whenever the signed in user changes.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Session) signedIn(ctx context.Context, username string) {
	s.set(username)
	if s.store == nil {
		return
	}
	if err := s.store.SaveSession(ctx, username); err != nil {
		s.logger.Warn("failed to store session", "error", err)
	}
}

func (s *Session) set(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.username != username {
		s.generation++
	}
	s.username = username
}
