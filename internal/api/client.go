package api

import (
	"context"
	"net/http"
	"strings"

	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"
)

// DefaultBaseURL is the remote REST root
const DefaultBaseURL = "https://api.twitter.com/1.1"

// ResourceVerifyCredentials is the rate-limit key of the verify call
const ResourceVerifyCredentials = "/account/verify_credentials"

// Client calls the remote REST service with one account's access token
type Client struct {
	signer      *oauth.Client
	baseURL     string
	token       string
	tokenSecret string
}

// NewClient wraps signer for the account owning token/tokenSecret
func NewClient(signer *oauth.Client, baseURL, token, tokenSecret string) *Client {
	return &Client{
		signer:      signer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		tokenSecret: tokenSecret,
	}
}

// SetToken replaces the access token pair
func (c *Client) SetToken(token, tokenSecret string) {
	c.token = token
	c.tokenSecret = tokenSecret
}

// CanRequest reports whether resource currently has quota
func (c *Client) CanRequest(resource string) bool {
	return c.signer.CanRequest(resource)
}

// VerifyCredentials returns the account the token belongs to
func (c *Client) VerifyCredentials(ctx context.Context) (*domain.RemoteUser, error) {
	resp, err := c.signer.Do(ctx, oauth.Request{
		Method:      http.MethodGet,
		URL:         c.baseURL + "/account/verify_credentials.json",
		Token:       c.token,
		TokenSecret: c.tokenSecret,
		Resource:    ResourceVerifyCredentials,
	})
	if err != nil {
		return nil, err
	}

	var user domain.RemoteUser
	if err := resp.DecodeJSON(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
