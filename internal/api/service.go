package api

import (
	"context"
	"time"

	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"
)

// Service hands out signing clients for one consumer. Calls made during
// authentication use a fresh signer each; account sessions keep their own.
type Service struct {
	consumer oauth.Consumer
	baseURL  string
	options  []oauth.Option
	password *PasswordVerifier
}

// NewService creates a Service for consumer against the REST root baseURL
func NewService(consumer oauth.Consumer, baseURL string, timeout time.Duration, opts ...oauth.Option) *Service {
	options := append([]oauth.Option{oauth.WithTimeout(timeout)}, opts...)
	return &Service{
		consumer: consumer,
		baseURL:  baseURL,
		options:  options,
		password: NewPasswordVerifier(baseURL, timeout),
	}
}

// NewSigner creates a short-lived signing client
func (s *Service) NewSigner() *oauth.Client {
	return oauth.NewClient(s.consumer, s.options...)
}

// NewAccountClient creates the long-lived client of one account session
func (s *Service) NewAccountClient(token, tokenSecret string) *Client {
	return NewClient(s.NewSigner(), s.baseURL, token, tokenSecret)
}

// VerifyPassword checks username/password directly
func (s *Service) VerifyPassword(ctx context.Context, username, password string) (*domain.RemoteUser, error) {
	return s.password.VerifyPassword(ctx, username, password)
}

// VerifyToken checks an access token pair
func (s *Service) VerifyToken(ctx context.Context, token, tokenSecret string) (*domain.RemoteUser, error) {
	return s.NewAccountClient(token, tokenSecret).VerifyCredentials(ctx)
}

// XAuthExchange trades username/password for an access token pair
func (s *Service) XAuthExchange(ctx context.Context, username, password string) (*domain.OAuthIdentity, error) {
	return s.NewSigner().XAuthAccessToken(ctx, username, password)
}
