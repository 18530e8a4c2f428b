package domain

// SetupState represents the interactive OAuth setup progress
type SetupState string

const (
	SetupAwaitingVerifier SetupState = "awaiting_verifier"
	SetupAwaitingPassword SetupState = "awaiting_password"
	SetupFinished         SetupState = "finished"
)

// AuthMode selects the authentication strategy
type AuthMode string

const (
	AuthModeOAuth    AuthMode = "oauth"
	AuthModePassword AuthMode = "password"
	AuthModeXAuth    AuthMode = "xauth"
)

// CredentialKey selects which remote attribute keys stored credentials
type CredentialKey string

const (
	KeyScreenName CredentialKey = "screen_name"
	KeyUserID     CredentialKey = "user_id"
)

// AccountKey returns the store key for an exchanged identity
func (k CredentialKey) AccountKey(identity *OAuthIdentity) string {
	if k == KeyUserID {
		return identity.UserIDString()
	}
	return identity.ScreenName
}
