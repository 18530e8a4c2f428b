package testutil

import (
	"context"
	"sync"

	"ircgateway/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a remote user
func NewTestUser(id int64, screenName string) *domain.RemoteUser {
	return &domain.RemoteUser{
		ID:         id,
		ScreenName: screenName,
		Name:       screenName,
	}
}

// NewTestIdentity creates an exchanged identity
func NewTestIdentity(id int64, screenName string) *domain.OAuthIdentity {
	return &domain.OAuthIdentity{
		Token:       "token-" + screenName,
		TokenSecret: "secret-" + screenName,
		ScreenName:  screenName,
		UserID:      id,
	}
}

// MemoryCredentialRepository is an in-memory CredentialRepository that
// counts writes
type MemoryCredentialRepository struct {
	mu     sync.Mutex
	creds  map[string]domain.Credential
	saves  int
	SaveFn func(accountID string, cred *domain.Credential) error
}

// NewMemoryCredentialRepository creates an empty store
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{creds: make(map[string]domain.Credential)}
}

func (r *MemoryCredentialRepository) Load(ctx context.Context, accountID string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cred, ok := r.creds[accountID]; ok {
		return &cred, nil
	}
	return &domain.Credential{AccountID: accountID}, nil
}

func (r *MemoryCredentialRepository) Save(ctx context.Context, accountID string, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveFn != nil {
		if err := r.SaveFn(accountID, cred); err != nil {
			return err
		}
	}
	if err := cred.Validate(); err != nil {
		return err
	}
	r.saves++
	stored := *cred
	stored.AccountID = accountID
	r.creds[accountID] = stored
	return nil
}

// SaveCount returns how many saves succeeded
func (r *MemoryCredentialRepository) SaveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}
