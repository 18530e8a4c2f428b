package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"ircgateway/internal/api"
	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"
	"ircgateway/internal/repository"

	"go.uber.org/zap"
)

// ClientFactory creates the signing client of a new account session
type ClientFactory interface {
	NewAccountClient(token, tokenSecret string) *api.Client
}

// Registry tracks the active account sessions by remote user id
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*AccountSession
	clients  ClientFactory
	repo     repository.CredentialRepository
	logger   *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(clients ClientFactory, repo repository.CredentialRepository, logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[int64]*AccountSession),
		clients:  clients,
		repo:     repo,
		logger:   logger,
	}
}

// Find returns the active session of userID
func (r *Registry) Find(userID int64) (*AccountSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// GetOrCreate returns the session of user and attaches n to it. identity
// may be nil when the account authenticated without a token.
func (r *Registry) GetOrCreate(accountKey string, user *domain.RemoteUser, identity *domain.OAuthIdentity, n Notifier) *AccountSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[user.ID]
	if !ok {
		var token, secret string
		if identity != nil {
			token, secret = identity.Token, identity.TokenSecret
		}
		s = newAccountSession(accountKey, user, r.clients.NewAccountClient(token, secret), r.repo, r.logger)
		r.sessions[user.ID] = s
		r.logger.Info("Account session created",
			zap.String("account", accountKey),
			zap.Int64("user_id", user.ID),
		)
	}
	s.attach(n)
	return s
}

// Release detaches n and closes the session once nothing is attached
func (r *Registry) Release(s *AccountSession, n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.detach(n) > 0 {
		return
	}
	id := s.ID()
	if cur, ok := r.sessions[id]; ok && cur == s {
		delete(r.sessions, id)
	}
	s.Close()
	r.logger.Info("Account session closed", zap.Int64("user_id", id))
}

// Remove closes and forgets the session of userID
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// ReloadActiveSession reloads the credentials of userID's session if one
// is running. A session whose new token is refused by the remote service is
// removed.
func (r *Registry) ReloadActiveSession(ctx context.Context, userID int64) (bool, error) {
	s, ok := r.Find(userID)
	if !ok {
		return false, nil
	}
	err := s.ReloadCredentials(ctx)
	var httpErr *oauth.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
		r.logger.Warn("Removing session with rejected credentials", zap.Int64("user_id", userID))
		r.Remove(userID)
	}
	return true, err
}

// Len returns the number of active sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close closes every session
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[int64]*AccountSession)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
