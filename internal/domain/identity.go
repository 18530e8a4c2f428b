package domain

import "strconv"

// Identity is what a connection presented during registration
type Identity struct {
	Nick           string
	AccountName    string
	Password       string
	RemoteEndpoint string
}

// Credential is the persisted per-account token pair and local password hash
type Credential struct {
	AccountID         string `json:"account_id"`
	OAuthAccessToken  string `json:"oauth_access_token"`
	OAuthTokenSecret  string `json:"oauth_token_secret"`
	LocalPasswordHash string `json:"local_password_hash"`
}

// HasToken reports whether both halves of the token pair are present
func (c *Credential) HasToken() bool {
	return c != nil && c.OAuthAccessToken != "" && c.OAuthTokenSecret != ""
}

// Validate rejects a credential carrying only one half of the token pair
func (c *Credential) Validate() error {
	if (c.OAuthAccessToken == "") != (c.OAuthTokenSecret == "") {
		return ErrInvalidCredential
	}
	return nil
}

// OAuthIdentity is the result of a token exchange
type OAuthIdentity struct {
	Token       string
	TokenSecret string
	ScreenName  string
	UserID      int64
}

// UserIDString returns the numeric remote id as text
func (o *OAuthIdentity) UserIDString() string {
	return strconv.FormatInt(o.UserID, 10)
}

// RemoteUser is the verified account on the remote service
type RemoteUser struct {
	ID         int64  `json:"id"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

// IDString returns the numeric remote id as text
func (u *RemoteUser) IDString() string {
	return strconv.FormatInt(u.ID, 10)
}
