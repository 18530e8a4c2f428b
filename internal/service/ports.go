package service

import (
	"context"

	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"
)

// Notifier surfaces progress and error text to a connection that has not
// finished registration
type Notifier interface {
	SendNotice(text string)
}

// SetupConn is the connection an interactive setup session talks through
type SetupConn interface {
	SendMessage(from, text string)
}

// RemoteAPI is the part of the remote service the strategies call
type RemoteAPI interface {
	VerifyPassword(ctx context.Context, username, password string) (*domain.RemoteUser, error)
	VerifyToken(ctx context.Context, token, tokenSecret string) (*domain.RemoteUser, error)
	XAuthExchange(ctx context.Context, username, password string) (*domain.OAuthIdentity, error)
}

// OAuthFlow drives the three-legged token exchange
type OAuthFlow interface {
	RequestToken(ctx context.Context) (*oauth.Token, error)
	AuthorizeURL(token string) string
	AccessToken(ctx context.Context, requestToken *oauth.Token, verifier string) (*domain.OAuthIdentity, error)
}

// FlowFactory creates a fresh OAuthFlow for one setup session
type FlowFactory func() OAuthFlow

// SessionFinder reloads the credentials of an already running session of
// the remote user, reporting whether one was found
type SessionFinder interface {
	ReloadActiveSession(ctx context.Context, userID int64) (bool, error)
}
