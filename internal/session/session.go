// Package session tracks who is signed in to the remote API. A Session moves
// between unauthenticated, verifying and authenticated; any rejected request
// sends it back to unauthenticated and forgets the stored credential.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/models"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// State of a Session.
type State int

const (
	StateUnauthenticated State = iota
	StateVerifying
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Authenticator is the remote side of sign-in.
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (string, error)
	Logout(ctx context.Context) error
	Verify(ctx context.Context) error
}

// Cache is cleared whenever the credential goes away.
type Cache interface {
	Clear()
}

// Options configures a Session.
type Options struct {
	Validator *validator.Validate
	Logger    *zap.Logger
	Clock     func() time.Time
	// OnChange is called after every state transition, outside the lock.
	OnChange func(State)
}

// Session is the authentication state of one console user.
type Session struct {
	mu    sync.RWMutex
	state State
	token string

	auth      Authenticator
	store     Store
	cache     Cache
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	onChange  func(State)
}

// New constructs an unauthenticated session.
func New(auth Authenticator, store Store, opts Options) *Session {
	if store == nil {
		store = NewMemoryStore("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := opts.Validator
	if v == nil {
		v = validator.New()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Session{
		auth:      auth,
		store:     store,
		validator: v,
		logger:    logger,
		now:       now,
		onChange:  opts.OnChange,
	}
}

// AttachCache registers the cache to clear when the credential is dropped.
func (s *Session) AttachCache(cache Cache) {
	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether requests may be made.
func (s *Session) Authenticated() bool { return s.State() == StateAuthenticated }

// Loading reports whether a stored credential is being verified.
func (s *Session) Loading() bool { return s.State() == StateVerifying }

// Identity describes the signed-in user from the token payload.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.RLock()
	token, state := s.token, s.state
	s.mu.RUnlock()
	if state != StateAuthenticated {
		return models.Identity{}, false
	}
	claims, err := ParseClaims(token)
	if err != nil {
		return models.Identity{}, true
	}
	return IdentityOf(claims), true
}

// Start verifies a stored credential. Without one, or when verification
// fails, the session stays unauthenticated and the store is cleared.
func (s *Session) Start(ctx context.Context) error {
	token, err := s.store.Load()
	if err != nil {
		s.logger.Warn("read stored credential failed", zap.Error(err))
	}
	token = strings.TrimSpace(token)
	if token == "" {
		s.transition(StateUnauthenticated, "")
		return appErrors.ErrNotAuthenticated
	}

	if claims, err := ParseClaims(token); err == nil && Expired(claims, s.now()) {
		s.logger.Info("stored credential expired")
		s.drop()
		return appErrors.Clone(appErrors.ErrNotAuthenticated, "session expired")
	}

	s.transition(StateVerifying, token)
	if err := s.auth.Verify(ctx); err != nil {
		s.logger.Info("stored credential rejected", zap.Error(err))
		s.drop()
		return appErrors.Wrap(err, appErrors.ErrNotAuthenticated.Code, appErrors.ErrNotAuthenticated.Status, appErrors.ErrNotAuthenticated.Message)
	}
	s.transition(StateAuthenticated, token)
	return nil
}

// Login exchanges credentials for a token. Every rejection surfaces as the
// same invalid-credentials error.
func (s *Session) Login(ctx context.Context, email, password string) error {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status, appErrors.ErrInvalidCredentials.Message)
	}

	token, err := s.auth.Login(ctx, req)
	if err != nil {
		s.logger.Info("login failed", zap.Error(err))
		if errors.Is(err, appErrors.ErrUpstreamUnavailable) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status, appErrors.ErrInvalidCredentials.Message)
	}

	if err := s.store.Save(token); err != nil {
		s.logger.Warn("persist credential failed", zap.Error(err))
	}
	s.transition(StateAuthenticated, token)
	return nil
}

// Logout tells the API, then clears the credential whatever it answered.
func (s *Session) Logout(ctx context.Context) error {
	var err error
	if s.Token() != "" {
		err = s.auth.Logout(ctx)
		if err != nil {
			s.logger.Info("server logout failed", zap.Error(err))
		}
	}
	s.drop()
	return err
}

// Reject handles a 401 from any request.
func (s *Session) Reject() {
	if s.State() == StateUnauthenticated && s.Token() == "" {
		return
	}
	s.logger.Info("credential rejected by api")
	s.drop()
}

func (s *Session) drop() {
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("clear stored credential failed", zap.Error(err))
	}
	s.mu.RLock()
	cache := s.cache
	s.mu.RUnlock()
	if cache != nil {
		cache.Clear()
	}
	s.transition(StateUnauthenticated, "")
}

func (s *Session) transition(state State, token string) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.token = token
	fn := s.onChange
	s.mu.Unlock()
	if changed && fn != nil {
		fn(state)
	}
}
