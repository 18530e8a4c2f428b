package repository

import (
	"context"

	"ircgateway/internal/domain"
)

// CredentialRepository persists per-account credentials.
// Load never fails for a missing account; it returns an empty credential.
type CredentialRepository interface {
	Load(ctx context.Context, accountID string) (*domain.Credential, error)
	Save(ctx context.Context, accountID string, cred *domain.Credential) error
}
