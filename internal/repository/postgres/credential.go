package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ircgateway/internal/domain"
)

// CredentialRepo implements repository.CredentialRepository
type CredentialRepo struct {
	db *sql.DB
}

// NewCredentialRepo creates a new credential repository
func NewCredentialRepo(db *sql.DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Load fetches the credential of accountID
func (r *CredentialRepo) Load(ctx context.Context, accountID string) (*domain.Credential, error) {
	if accountID == "" {
		return nil, domain.ErrInvalidAccountID
	}

	cred := &domain.Credential{AccountID: accountID}
	query := `SELECT access_token, token_secret, password_hash FROM credentials WHERE account_id = $1`
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&cred.OAuthAccessToken, &cred.OAuthTokenSecret, &cred.LocalPasswordHash)

	if errors.Is(err, sql.ErrNoRows) {
		// Account not configured yet
		return cred, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	return cred, nil
}

// Save upserts the credential of accountID in a single statement
func (r *CredentialRepo) Save(ctx context.Context, accountID string, cred *domain.Credential) error {
	if accountID == "" {
		return domain.ErrInvalidAccountID
	}
	if err := cred.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO credentials (account_id, access_token, token_secret, password_hash, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (account_id)
		DO UPDATE SET access_token = EXCLUDED.access_token,
			token_secret = EXCLUDED.token_secret,
			password_hash = EXCLUDED.password_hash,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, accountID, cred.OAuthAccessToken, cred.OAuthTokenSecret, cred.LocalPasswordHash)
	return err
}
