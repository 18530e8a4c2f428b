package service

import (
	"context"
	"fmt"

	"ircgateway/internal/cryptox"
	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"
	"ircgateway/internal/repository"

	"go.uber.org/zap"
)

// Authenticator decides the outcome of one connection attempt
type Authenticator interface {
	Authenticate(ctx context.Context, n Notifier, identity domain.Identity) domain.AuthenticateResult
}

// NewAuthenticator returns the strategy for mode
func NewAuthenticator(mode domain.AuthMode, remote RemoteAPI, repo repository.CredentialRepository, logger *zap.Logger) (Authenticator, error) {
	switch mode {
	case domain.AuthModeOAuth:
		return NewOAuthPinAuth(remote, repo, logger), nil
	case domain.AuthModePassword:
		return NewDirectPasswordAuth(remote, logger), nil
	case domain.AuthModeXAuth:
		return NewXAuthAuth(remote, logger), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

const (
	noticeAuthFailed   = "* account authentication failed. check your user name and password."
	noticeStartSetup   = "* starting OAuth setup..."
	noticeCheckAccount = "* checking account (%s)..."
	noticeAccount      = "* account: %s (ID:%d)"
)

// DirectPasswordAuth verifies username and password against the remote service
type DirectPasswordAuth struct {
	remote RemoteAPI
	logger *zap.Logger
}

// NewDirectPasswordAuth creates a direct-password strategy
func NewDirectPasswordAuth(remote RemoteAPI, logger *zap.Logger) *DirectPasswordAuth {
	return &DirectPasswordAuth{remote: remote, logger: logger}
}

// Authenticate checks the presented password remotely
func (a *DirectPasswordAuth) Authenticate(ctx context.Context, n Notifier, identity domain.Identity) domain.AuthenticateResult {
	if identity.Nick == "" {
		return domain.NoNickname()
	}
	if identity.Password == "" {
		return domain.PasswordMismatch()
	}

	n.SendNotice(fmt.Sprintf(noticeCheckAccount, "password"))

	user, err := a.remote.VerifyPassword(ctx, identity.AccountName, identity.Password)
	if err != nil {
		a.logger.Warn("Password verification failed",
			zap.String("account", identity.AccountName),
			zap.String("remote", identity.RemoteEndpoint),
			zap.Error(err),
		)
		n.SendNotice(noticeAuthFailed)
		return domain.PasswordMismatch()
	}

	n.SendNotice(fmt.Sprintf(noticeAccount, user.ScreenName, user.ID))
	return domain.Success(user, nil)
}

// OAuthPinAuth checks the local password of a stored access token and
// hands unconfigured accounts to interactive setup
type OAuthPinAuth struct {
	remote RemoteAPI
	repo   repository.CredentialRepository
	logger *zap.Logger
}

// NewOAuthPinAuth creates an OAuth PIN strategy
func NewOAuthPinAuth(remote RemoteAPI, repo repository.CredentialRepository, logger *zap.Logger) *OAuthPinAuth {
	return &OAuthPinAuth{remote: remote, repo: repo, logger: logger}
}

// Authenticate verifies the stored token once the local password matches.
// An empty password always restarts setup.
func (a *OAuthPinAuth) Authenticate(ctx context.Context, n Notifier, identity domain.Identity) domain.AuthenticateResult {
	if identity.Nick == "" {
		return domain.NoNickname()
	}
	if identity.Password == "" {
		n.SendNotice(noticeStartSetup)
		return domain.ContinueSetup()
	}

	cred, err := a.repo.Load(ctx, identity.AccountName)
	if err != nil {
		a.logger.Error("Failed to load credential",
			zap.String("account", identity.AccountName),
			zap.Error(err),
		)
		n.SendNotice(noticeAuthFailed)
		return domain.PasswordMismatch()
	}

	n.SendNotice(fmt.Sprintf(noticeCheckAccount, "OAuth"))

	if !cred.HasToken() {
		n.SendNotice(noticeStartSetup)
		return domain.ContinueSetup()
	}

	if !cryptox.CheckPassword(cred.LocalPasswordHash, identity.Password) {
		a.logger.Info("Local password mismatch", zap.String("account", identity.AccountName))
		n.SendNotice(noticeAuthFailed)
		return domain.PasswordMismatch()
	}

	user, err := a.remote.VerifyToken(ctx, cred.OAuthAccessToken, cred.OAuthTokenSecret)
	if err != nil {
		// Transport failures are reported as a mismatch too
		a.logger.Warn("Token verification failed",
			zap.String("account", identity.AccountName),
			zap.String("detail", oauth.MessageFromError(err)),
			zap.Error(err),
		)
		n.SendNotice(noticeAuthFailed)
		return domain.PasswordMismatch()
	}

	n.SendNotice(fmt.Sprintf(noticeAccount, user.ScreenName, user.ID))
	return domain.Success(user, &domain.OAuthIdentity{
		Token:       cred.OAuthAccessToken,
		TokenSecret: cred.OAuthTokenSecret,
		ScreenName:  user.ScreenName,
		UserID:      user.ID,
	})
}

// XAuthAuth trades username and password for an access token in one step
type XAuthAuth struct {
	remote RemoteAPI
	logger *zap.Logger
}

// NewXAuthAuth creates an xAuth strategy
func NewXAuthAuth(remote RemoteAPI, logger *zap.Logger) *XAuthAuth {
	return &XAuthAuth{remote: remote, logger: logger}
}

// Authenticate exchanges the password for a token and verifies it
func (a *XAuthAuth) Authenticate(ctx context.Context, n Notifier, identity domain.Identity) domain.AuthenticateResult {
	if identity.Nick == "" {
		return domain.NoNickname()
	}
	if identity.Password == "" {
		return domain.PasswordMismatch()
	}

	n.SendNotice(fmt.Sprintf(noticeCheckAccount, "xAuth"))

	oid, err := a.remote.XAuthExchange(ctx, identity.AccountName, identity.Password)
	if err != nil {
		a.logger.Warn("xAuth exchange failed",
			zap.String("account", identity.AccountName),
			zap.String("detail", oauth.MessageFromError(err)),
			zap.Error(err),
		)
		n.SendNotice(noticeAuthFailed)
		return domain.PasswordMismatch()
	}

	user, err := a.remote.VerifyToken(ctx, oid.Token, oid.TokenSecret)
	if err != nil {
		a.logger.Warn("xAuth token verification failed",
			zap.String("account", identity.AccountName),
			zap.String("detail", oauth.MessageFromError(err)),
			zap.Error(err),
		)
		n.SendNotice(noticeAuthFailed)
		return domain.PasswordMismatch()
	}

	oid.ScreenName = user.ScreenName
	oid.UserID = user.ID

	n.SendNotice(fmt.Sprintf(noticeAccount, user.ScreenName, user.ID))
	return domain.Success(user, oid)
}
