package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"movienight-cli/model"
	"movienight-cli/service"
	"movienight-cli/store"
)

// ErrSessionExpired is returned when the session could not be renewed. The
// session has already been logged out when it is returned.
var ErrSessionExpired = fmt.Errorf("session expired: %w", service.ErrAuth)

// Persister keeps the token pair across runs.
type Persister interface {
	Load() (model.Tokens, error)
	Save(model.Tokens) error
	Clear() error
}

// FilePersister stores tokens in the user config directory.
type FilePersister struct{}

func (FilePersister) Load() (model.Tokens, error) { return store.LoadTokens() }
func (FilePersister) Save(t model.Tokens) error   { return store.SaveTokens(t) }
func (FilePersister) Clear() error                { return store.ClearTokens() }

type accessClaims struct {
	Email  string      `json:"email"`
	UserID json.Number `json:"user_id"`
	jwt.RegisteredClaims
}

// Store is the single source of truth for authentication state. It is
// installed as the client's token source, so every request reads the token
// current at send time.
type Store struct {
	client  *service.Client
	persist Persister
	logger  *logrus.Logger

	mu        sync.RWMutex
	session   model.Session
	expiresAt time.Time
}

func New(client *service.Client, persist Persister, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Store{client: client, persist: persist, logger: logger}
	client.SetTokenSource(s)
	return s
}

// Restore loads persisted tokens. A missing or unreadable file leaves the
// store logged out.
func (s *Store) Restore() model.Session {
	if s.persist == nil {
		return s.Current()
	}
	tokens, err := s.persist.Load()
	if err != nil {
		s.logger.WithError(err).Warn("could not load persisted session")
		return s.Current()
	}
	if tokens.Access == "" {
		return s.Current()
	}
	s.apply(tokens)
	return s.Current()
}

func (s *Store) Login(ctx context.Context, credentials model.Credentials) (model.Session, error) {
	tokens, err := s.client.ObtainToken(ctx, credentials)
	if err != nil {
		return model.Session{}, fmt.Errorf("login: %w", err)
	}
	return s.establish(tokens), nil
}

// LoginWithExternalToken exchanges an identity-provider ID token for a session.
func (s *Store) LoginWithExternalToken(ctx context.Context, idToken string) (model.Session, error) {
	tokens, err := s.client.GoogleLogin(ctx, idToken)
	if err != nil {
		return model.Session{}, fmt.Errorf("external login: %w", err)
	}
	return s.establish(tokens), nil
}

// Refresh renews the access token. Any failure logs the session out.
func (s *Store) Refresh(ctx context.Context) (model.Session, error) {
	s.mu.RLock()
	refresh := s.session.RefreshToken
	s.mu.RUnlock()

	if refresh == "" {
		s.Logout()
		return model.Session{}, ErrSessionExpired
	}

	tokens, err := s.client.RefreshToken(ctx, refresh)
	if err != nil {
		s.logger.WithError(err).Info("token refresh failed, logging out")
		s.Logout()
		return model.Session{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	if tokens.Refresh == "" {
		tokens.Refresh = refresh
	}
	return s.establish(tokens), nil
}

// Logout clears the session in memory and on disk. Calling it twice is harmless.
func (s *Store) Logout() {
	s.mu.Lock()
	s.session = model.Session{}
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Clear(); err != nil {
			s.logger.WithError(err).Warn("could not clear persisted session")
		}
	}
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken != ""
}

func (s *Store) Current() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	current := s.session
	if current.User != nil {
		user := *current.User
		current.User = &user
	}
	return current
}

// Token implements service.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

// ExpiresAt reports the access token expiry, or the zero time when unknown.
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Register creates an account after the same checks the sign-up form applies.
func (s *Store) Register(ctx context.Context, email, password, rePassword string) (model.User, error) {
	email = strings.TrimSpace(email)
	if err := ValidateRegistration(email, password, rePassword); err != nil {
		return model.User{}, err
	}
	user, err := s.client.Register(ctx, model.Registration{
		Email:      email,
		Password:   password,
		RePassword: rePassword,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("register: %w", err)
	}
	return user, nil
}

// Profile fetches the signed-in user's profile from the server.
func (s *Store) Profile(ctx context.Context) (model.User, error) {
	if !s.IsAuthenticated() {
		return model.User{}, fmt.Errorf("profile: %w", service.ErrAuth)
	}
	return s.client.CurrentUser(ctx)
}

func (s *Store) establish(tokens model.Tokens) model.Session {
	s.apply(tokens)
	if s.persist != nil {
		if err := s.persist.Save(tokens); err != nil {
			s.logger.WithError(err).Warn("could not persist session")
		}
	}
	return s.Current()
}

func (s *Store) apply(tokens model.Tokens) {
	user, expiresAt, err := decodeAccess(tokens.Access)
	if err != nil {
		s.logger.WithError(err).Warn("access token payload could not be decoded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = model.Session{
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
		User:         user,
	}
	s.expiresAt = expiresAt
}

// decodeAccess reads the payload of an access token without verifying its
// signature; the server remains the authority on validity.
func decodeAccess(token string) (*model.User, time.Time, error) {
	if token == "" {
		return nil, time.Time{}, errors.New("empty access token")
	}
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, time.Time{}, err
	}
	user := &model.User{Email: claims.Email}
	if claims.UserID != "" {
		id, err := claims.UserID.Int64()
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("user_id claim: %w", err)
		}
		user.ID = int(id)
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return user, expiresAt, nil
}
