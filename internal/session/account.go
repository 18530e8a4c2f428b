package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ircgateway/internal/api"
	"ircgateway/internal/domain"
	"ircgateway/internal/repository"

	"go.uber.org/zap"
)

// ErrClosed is returned by calls on a closed session
var ErrClosed = errors.New("session closed")

// Notifier receives notices about the session
type Notifier interface {
	SendNotice(text string)
}

type reloadRequest struct {
	ctx   context.Context
	reply chan error
}

// AccountSession is the long-lived state of one remote account. Its signing
// client and rate-limit table are touched only by the session goroutine.
type AccountSession struct {
	id     int64
	key    string
	client *api.Client
	repo   repository.CredentialRepository
	logger *zap.Logger

	mu    sync.Mutex
	user  domain.RemoteUser
	conns map[Notifier]struct{}

	reloads   chan reloadRequest
	done      chan struct{}
	closeOnce sync.Once
}

func newAccountSession(key string, user *domain.RemoteUser, client *api.Client, repo repository.CredentialRepository, logger *zap.Logger) *AccountSession {
	s := &AccountSession{
		id:      user.ID,
		key:     key,
		client:  client,
		repo:    repo,
		logger:  logger.With(zap.String("account", key), zap.Int64("user_id", user.ID)),
		user:    *user,
		conns:   make(map[Notifier]struct{}),
		reloads: make(chan reloadRequest),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// ID is the remote user id the session was created for
func (s *AccountSession) ID() int64 {
	return s.id
}

// AccountKey is the credential store key of the account
func (s *AccountSession) AccountKey() string {
	return s.key
}

// User returns the last verified remote user
func (s *AccountSession) User() domain.RemoteUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *AccountSession) attach(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[n] = struct{}{}
}

func (s *AccountSession) detach(n Notifier) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, n)
	return len(s.conns)
}

func (s *AccountSession) broadcast(text string) {
	s.mu.Lock()
	conns := make([]Notifier, 0, len(s.conns))
	for n := range s.conns {
		conns = append(conns, n)
	}
	s.mu.Unlock()

	for _, n := range conns {
		n.SendNotice(text)
	}
}

func (s *AccountSession) run() {
	for {
		select {
		case <-s.done:
			return
		case req := <-s.reloads:
			req.reply <- s.reload(req.ctx)
		}
	}
}

// ReloadCredentials reads the stored token pair again and re-verifies it
func (s *AccountSession) ReloadCredentials(ctx context.Context) error {
	req := reloadRequest{ctx: ctx, reply: make(chan error, 1)}

	select {
	case s.reloads <- req:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AccountSession) reload(ctx context.Context) error {
	cred, err := s.repo.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if !cred.HasToken() {
		return fmt.Errorf("account %s has no stored token", s.key)
	}

	s.client.SetToken(cred.OAuthAccessToken, cred.OAuthTokenSecret)

	user, err := s.client.VerifyCredentials(ctx)
	if err != nil {
		s.logger.Warn("Reloaded token failed verification", zap.Error(err))
		s.broadcast("Error: the new credentials could not be verified.")
		return fmt.Errorf("failed to verify reloaded token: %w", err)
	}

	s.mu.Lock()
	s.user = *user
	s.mu.Unlock()

	s.logger.Info("Credentials reloaded", zap.String("screen_name", user.ScreenName))
	s.broadcast(fmt.Sprintf("* credentials reloaded: %s (ID:%d)", user.ScreenName, user.ID))
	return nil
}

// Close stops the session goroutine
func (s *AccountSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
