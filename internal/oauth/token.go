package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ircgateway/internal/domain"
)

// DefaultOAuthBaseURL is the remote service's OAuth endpoint root
const DefaultOAuthBaseURL = "https://api.twitter.com/oauth"

// Endpoints are the three fixed OAuth 1.0a URLs
type Endpoints struct {
	RequestToken string
	Authorize    string
	AccessToken  string
}

// DefaultEndpoints derives the endpoints below base
func DefaultEndpoints(base string) Endpoints {
	base = strings.TrimRight(base, "/")
	return Endpoints{
		RequestToken: base + "/request_token",
		Authorize:    base + "/authorize",
		AccessToken:  base + "/access_token",
	}
}

// Token is an unauthorized request token
type Token struct {
	Token  string
	Secret string
}

// RequestToken obtains an unauthorized request token
func (c *Client) RequestToken(ctx context.Context) (*Token, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: c.endpoints.RequestToken})
	if err != nil {
		return nil, err
	}
	values := parseReply(string(resp.Body))
	token := values["oauth_token"]
	if token == "" {
		return nil, fmt.Errorf("request token reply has no oauth_token")
	}
	return &Token{Token: token, Secret: values["oauth_token_secret"]}, nil
}

// AuthorizeURL is where the account owner grants access to token
func (c *Client) AuthorizeURL(token string) string {
	return c.endpoints.Authorize + "?oauth_token=" + Encode(token)
}

// AccessToken exchanges an authorized request token and its verifier (PIN)
// for an access token pair.
func (c *Client) AccessToken(ctx context.Context, requestToken *Token, verifier string) (*domain.OAuthIdentity, error) {
	resp, err := c.Do(ctx, Request{
		Method:      http.MethodGet,
		URL:         c.endpoints.AccessToken,
		Token:       requestToken.Token,
		TokenSecret: requestToken.Secret,
		Verifier:    verifier,
	})
	if err != nil {
		return nil, err
	}
	return parseIdentity(string(resp.Body))
}

// XAuthAccessToken exchanges a username and password for an access token
// pair in one round trip.
func (c *Client) XAuthAccessToken(ctx context.Context, username, password string) (*domain.OAuthIdentity, error) {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		URL:    c.endpoints.AccessToken,
		Params: url.Values{
			"x_auth_mode":     {"client_auth"},
			"x_auth_username": {username},
			"x_auth_password": {password},
		},
	})
	if err != nil {
		return nil, err
	}
	return parseIdentity(string(resp.Body))
}

// parseReply splits k=v pairs separated by '&' or ';'
func parseReply(body string) map[string]string {
	values := make(map[string]string)
	fields := strings.FieldsFunc(strings.TrimSpace(body), func(r rune) bool {
		return r == '&' || r == ';'
	})
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		if dv, err := url.QueryUnescape(v); err == nil {
			v = dv
		}
		values[k] = v
	}
	return values
}

func parseIdentity(body string) (*domain.OAuthIdentity, error) {
	values := parseReply(body)
	identity := &domain.OAuthIdentity{
		Token:       values["oauth_token"],
		TokenSecret: values["oauth_token_secret"],
		ScreenName:  values["screen_name"],
	}
	if identity.Token == "" || identity.TokenSecret == "" {
		return nil, fmt.Errorf("access token reply has no token pair")
	}
	if raw := values["user_id"]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user_id in access token reply: %w", err)
		}
		identity.UserID = id
	}
	return identity, nil
}
