package service

import (
	"context"
	"time"

	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"
	"ircgateway/internal/repository"

	"go.uber.org/zap"
)

// AuthController coordinates authentication for every connection attempt
type AuthController struct {
	auth     Authenticator
	flows    FlowFactory
	repo     repository.CredentialRepository
	sessions SessionFinder
	key      domain.CredentialKey
	timeout  time.Duration
	logger   *zap.Logger
}

// NewAuthController creates a controller around one strategy
func NewAuthController(auth Authenticator, flows FlowFactory, repo repository.CredentialRepository,
	sessions SessionFinder, key domain.CredentialKey, timeout time.Duration, logger *zap.Logger) *AuthController {
	if timeout <= 0 {
		timeout = oauth.DefaultTimeout
	}
	return &AuthController{
		auth:     auth,
		flows:    flows,
		repo:     repo,
		sessions: sessions,
		key:      key,
		timeout:  timeout,
		logger:   logger,
	}
}

// Authenticate runs the configured strategy once, bounded by the timeout
func (c *AuthController) Authenticate(ctx context.Context, n Notifier, identity domain.Identity) domain.AuthenticateResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := c.auth.Authenticate(ctx, n, identity)

	fields := []zap.Field{
		zap.String("nick", identity.Nick),
		zap.String("account", identity.AccountName),
		zap.String("remote", identity.RemoteEndpoint),
		zap.String("result", result.Kind.String()),
	}
	if result.Kind == domain.ResultFailure {
		fields = append(fields, zap.String("code", string(result.ErrorCode)), zap.Error(result.Err()))
	}
	c.logger.Info("Authentication attempt", fields...)

	return result
}

// AttachSetupSession starts interactive setup on conn. The session is
// returned even when the first request fails so the owner can retry.
func (c *AuthController) AttachSetupSession(ctx context.Context, conn SetupConn) (*SetupSession, error) {
	s := NewSetupSession(conn, SetupOptions{
		Flow:     c.flows(),
		Repo:     c.repo,
		Sessions: c.sessions,
		Key:      c.key,
		Timeout:  c.timeout,
	}, c.logger)

	return s, s.Attach(ctx)
}
