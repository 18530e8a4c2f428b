package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ircgateway/internal/cryptox"
	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"
	"ircgateway/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SetupSender is the pseudo-user every setup message comes from
const SetupSender = "$OAuth"

// SetupOptions are the collaborators of a SetupSession
type SetupOptions struct {
	Flow     OAuthFlow
	Repo     repository.CredentialRepository
	Sessions SessionFinder
	Key      domain.CredentialKey
	Timeout  time.Duration
}

// SetupSession walks the owner of one connection through remote
// authorization and local password assignment. It is owned by a single
// connection and is not safe for concurrent use.
type SetupSession struct {
	id     string
	conn   SetupConn
	opts   SetupOptions
	logger *zap.Logger

	state        domain.SetupState
	requestToken *oauth.Token
	identity     *domain.OAuthIdentity
}

// NewSetupSession creates a session in the AwaitingVerifier state
func NewSetupSession(conn SetupConn, opts SetupOptions, logger *zap.Logger) *SetupSession {
	if opts.Key == "" {
		opts.Key = domain.KeyScreenName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = oauth.DefaultTimeout
	}
	id := uuid.NewString()
	return &SetupSession{
		id:     id,
		conn:   conn,
		opts:   opts,
		logger: logger.With(zap.String("setup_id", id)),
		state:  domain.SetupAwaitingVerifier,
	}
}

// ID identifies the session in logs
func (s *SetupSession) ID() string {
	return s.id
}

// State returns the current setup step
func (s *SetupSession) State() domain.SetupState {
	return s.state
}

func (s *SetupSession) send(text string) {
	s.conn.SendMessage(SetupSender, text)
}

// Attach requests an unauthorized token and sends the authorization URL
func (s *SetupSession) Attach(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	token, err := s.opts.Flow.RequestToken(ctx)
	if err != nil {
		s.logger.Warn("Failed to get request token", zap.Error(err))
		s.send("Error: could not start authorization (" + oauth.MessageFromError(err) + "). Send any message to try again.")
		return fmt.Errorf("failed to get request token: %w", err)
	}
	s.requestToken = token

	s.send("Open the following URL in a browser, allow access for this application, then send the PIN code shown.")
	s.send(s.opts.Flow.AuthorizeURL(token.Token))
	return nil
}

// HandleLine processes one line typed by the owner
func (s *SetupSession) HandleLine(ctx context.Context, text string) {
	text = strings.TrimSpace(text)

	switch s.state {
	case domain.SetupAwaitingVerifier:
		if s.requestToken == nil {
			s.Attach(ctx)
			return
		}
		s.exchangeVerifier(ctx, text)
	case domain.SetupAwaitingPassword:
		s.savePassword(ctx, text)
	case domain.SetupFinished:
		// nothing left to do
	}
}

func (s *SetupSession) exchangeVerifier(ctx context.Context, verifier string) {
	if verifier == "" {
		s.send("Error: send the PIN code shown after allowing access.")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	identity, err := s.opts.Flow.AccessToken(ctx, s.requestToken, verifier)
	if err != nil {
		s.logger.Warn("Verifier exchange failed", zap.Error(err))
		s.send("Error: access was not granted (" + oauth.MessageFromError(err) + "). Check the PIN code and send it again.")
		return
	}

	if !hasAccountKey(s.opts.Key, identity) {
		s.logger.Warn("Access token reply has no account key",
			zap.String("key", string(s.opts.Key)),
			zap.Int64("user_id", identity.UserID),
		)
		s.send("Error: the remote service did not return the account name needed to store this configuration. Allow access again at the new URL.")
		s.requestToken = nil
		s.Attach(ctx)
		return
	}

	s.identity = identity
	s.state = domain.SetupAwaitingPassword

	s.logger.Info("Verifier accepted",
		zap.String("screen_name", identity.ScreenName),
		zap.Int64("user_id", identity.UserID),
	)
	s.send(fmt.Sprintf("Authorized as %s (ID:%d).", identity.ScreenName, identity.UserID))
	s.send("Send the password you will give your IRC client for this gateway.")
}

func (s *SetupSession) savePassword(ctx context.Context, password string) {
	if password == "" {
		s.send("Error: the password must not be empty.")
		return
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		s.logger.Warn("Failed to hash password", zap.Error(err))
		s.send("Error: this password cannot be used (" + err.Error() + ").")
		return
	}

	accountID := s.opts.Key.AccountKey(s.identity)
	cred := &domain.Credential{
		AccountID:         accountID,
		OAuthAccessToken:  s.identity.Token,
		OAuthTokenSecret:  s.identity.TokenSecret,
		LocalPasswordHash: hash,
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := s.opts.Repo.Save(ctx, accountID, cred); err != nil {
		s.logger.Error("Failed to save credential", zap.String("account", accountID), zap.Error(err))
		s.send("Error: failed to store the configuration (" + err.Error() + ").")
		return
	}

	s.logger.Info("Credential saved", zap.String("account", accountID))
	if s.opts.Key == domain.KeyUserID {
		s.send(fmt.Sprintf("Password set. Reconnect with %s as the user name (login name) and the password you just set.", accountID))
	} else {
		s.send("Password set. Reconnect with the password you just set.")
	}

	if s.opts.Sessions != nil {
		found, err := s.opts.Sessions.ReloadActiveSession(ctx, s.identity.UserID)
		if err != nil {
			s.logger.Warn("Failed to reload active session", zap.Int64("user_id", s.identity.UserID), zap.Error(err))
		} else if found {
			s.logger.Info("Active session reloaded", zap.Int64("user_id", s.identity.UserID))
		}
	}

	s.state = domain.SetupFinished
}

func hasAccountKey(key domain.CredentialKey, identity *domain.OAuthIdentity) bool {
	if key == domain.KeyUserID {
		return identity.UserID > 0
	}
	return identity.ScreenName != ""
}

// Close discards everything the session holds. Nothing is persisted
// unless the session already finished.
func (s *SetupSession) Close() {
	if s.state != domain.SetupFinished {
		s.logger.Info("Setup abandoned", zap.String("state", string(s.state)))
	}
	s.requestToken = nil
	s.identity = nil
}
