// Package session owns the client-side authentication lifecycle: the
// persisted credential, the profile, and the Anonymous / Resuming /
// Authenticated state machine.
package session

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"taskman/internal/api"
	"taskman/internal/service"
)

// State is the session lifecycle state.
type State int

const (
	// Anonymous means no usable credential is held.
	Anonymous State = iota
	// Resuming means a persisted credential was found at startup and the
	// profile fetch that validates it has not completed yet.
	Resuming
	// Authenticated means a credential and a profile are both held.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Resuming:
		return "resuming"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// TokenStore persists the credential across processes.
// config.Config satisfies this interface.
type TokenStore interface {
	LoadToken() (*oauth2.Token, error)
	SaveToken(*oauth2.Token) error
	RemoveToken() error
}

// LoginFunc exchanges credentials for a token. api.Login, bound to a base
// URL, is the production implementation.
type LoginFunc func(ctx context.Context, username, password string) (*oauth2.Token, error)

// ConnectFunc builds an authenticated service from a token.
type ConnectFunc func(token *oauth2.Token) service.Service

// Session owns the client-side auth state. At most one credential is held
// at a time; every transition that sets a credential persists it before
// any dependent network call, and every transition that clears it removes
// the persisted copy synchronously.
type Session struct {
	mu       sync.Mutex
	store    TokenStore
	login    LoginFunc
	connect  ConnectFunc
	state    State
	token    *oauth2.Token
	profile  *service.Profile
	svc      service.Service
	onLogout []func()
}

// New creates a session. If store holds a persisted token the session
// starts Resuming and the caller is expected to call Resume; otherwise it
// starts Anonymous with no network traffic.
func New(store TokenStore, login LoginFunc, connect ConnectFunc) (*Session, error) {
	s := &Session{
		store:   store,
		login:   login,
		connect: connect,
		state:   Anonymous,
	}

	token, err := store.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token != nil {
		s.token = token
		s.state = Resuming
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether a profile is held.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile != nil
}

// IsLoading reports whether startup resumption is still in progress.
func (s *Session) IsLoading() bool {
	return s.State() == Resuming
}

// Profile returns the authenticated profile, or nil.
func (s *Session) Profile() *service.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Service returns the authenticated API surface, or nil while not
// authenticated.
func (s *Session) Service() service.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svc
}

// OnLogout registers a hook run synchronously by Logout. The task cache
// registers its Clear here so logged-out state never shows stale tasks.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Resume validates the persisted credential by fetching the profile.
//
// An authentication rejection means the token is dead: the persisted copy
// is cleared and the session ends Anonymous. A network failure is retried
// once; if the retry also fails the session ends Anonymous for this run
// but the persisted credential is kept, so a later start can try again.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Resuming {
		s.mu.Unlock()
		return fmt.Errorf("resume: session is %s", s.state)
	}
	token := s.token
	s.mu.Unlock()

	profile, err := s.connect(token).Me(ctx)
	if err != nil && api.IsNetwork(err) {
		profile, err = s.connect(token).Me(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = Anonymous
		s.token = nil
		s.profile = nil
		s.svc = nil
		if !api.IsNetwork(err) {
			if rmErr := s.store.RemoveToken(); rmErr != nil {
				return fmt.Errorf("resume: %w (and clearing token: %v)", err, rmErr)
			}
		}
		return fmt.Errorf("resume: %w", err)
	}

	s.token = token
	s.profile = &profile
	s.svc = s.connect(token)
	s.state = Authenticated
	return nil
}

// Login authenticates with the given credentials. On success the session
// is Authenticated with a fresh profile and the token is persisted. If the
// profile fetch after a successful token exchange fails, the session
// reverts to Anonymous and the just-persisted token is cleared: without a
// profile there is no usable session.
func (s *Session) Login(ctx context.Context, username, password string) error {
	token, err := s.login(ctx, username, password)
	if err != nil {
		return err
	}

	// Persist before the dependent profile fetch so a crash between the
	// two calls can still resume.
	if err := s.store.SaveToken(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	profile, err := s.connect(token).Me(ctx)
	if err != nil {
		s.store.RemoveToken()
		s.mu.Lock()
		s.state = Anonymous
		s.token = nil
		s.profile = nil
		s.svc = nil
		s.mu.Unlock()
		return fmt.Errorf("fetch profile: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.profile = &profile
	s.svc = s.connect(token)
	s.state = Authenticated
	s.mu.Unlock()
	return nil
}

// Logout clears the credential and profile from memory and from durable
// storage synchronously, then runs the logout hooks. No server call is
// made; the backend has no revocation endpoint.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.state = Anonymous
	s.token = nil
	s.profile = nil
	s.svc = nil
	hooks := make([]func(), len(s.onLogout))
	copy(hooks, s.onLogout)
	s.mu.Unlock()

	err := s.store.RemoveToken()

	for _, fn := range hooks {
		fn()
	}
	return err
}
