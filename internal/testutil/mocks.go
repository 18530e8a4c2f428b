package testutil

import (
	"context"
	"sync"

	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"

	"github.com/stretchr/testify/mock"
)

// MockCredentialRepository is a mock for CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Load(ctx context.Context, accountID string) (*domain.Credential, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) Save(ctx context.Context, accountID string, cred *domain.Credential) error {
	args := m.Called(ctx, accountID, cred)
	return args.Error(0)
}

// MockRemoteAPI is a mock for the remote service surface
type MockRemoteAPI struct {
	mock.Mock
}

func (m *MockRemoteAPI) VerifyPassword(ctx context.Context, username, password string) (*domain.RemoteUser, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RemoteUser), args.Error(1)
}

func (m *MockRemoteAPI) VerifyToken(ctx context.Context, token, tokenSecret string) (*domain.RemoteUser, error) {
	args := m.Called(ctx, token, tokenSecret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RemoteUser), args.Error(1)
}

func (m *MockRemoteAPI) XAuthExchange(ctx context.Context, username, password string) (*domain.OAuthIdentity, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuthIdentity), args.Error(1)
}

// MockOAuthFlow is a mock for the three-legged token exchange
type MockOAuthFlow struct {
	mock.Mock
}

func (m *MockOAuthFlow) RequestToken(ctx context.Context) (*oauth.Token, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.Token), args.Error(1)
}

func (m *MockOAuthFlow) AuthorizeURL(token string) string {
	args := m.Called(token)
	return args.String(0)
}

func (m *MockOAuthFlow) AccessToken(ctx context.Context, requestToken *oauth.Token, verifier string) (*domain.OAuthIdentity, error) {
	args := m.Called(ctx, requestToken, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuthIdentity), args.Error(1)
}

// MockSessionFinder is a mock for the active session registry
type MockSessionFinder struct {
	mock.Mock
}

func (m *MockSessionFinder) ReloadActiveSession(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// RecordingNotifier collects notices and setup messages
type RecordingNotifier struct {
	mu       sync.Mutex
	Notices  []string
	Messages []string
}

func (r *RecordingNotifier) SendNotice(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, text)
}

func (r *RecordingNotifier) SendMessage(from, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, from+": "+text)
}

// Snapshot returns copies of what was recorded so far
func (r *RecordingNotifier) Snapshot() (notices, messages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Notices...), append([]string(nil), r.Messages...)
}
