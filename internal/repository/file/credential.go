package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ircgateway/internal/domain"
)

const credentialFile = "credential.json"

// CredentialRepo implements repository.CredentialRepository on a directory
// tree: <dir>/<account>/credential.json
type CredentialRepo struct {
	dir  string
	lock sync.Mutex
}

// NewCredentialRepo creates a repository rooted at dir
func NewCredentialRepo(dir string) *CredentialRepo {
	return &CredentialRepo{dir: dir}
}

func (r *CredentialRepo) path(accountID string) (string, error) {
	if accountID == "" || accountID == "." || accountID == ".." ||
		strings.ContainsAny(accountID, `/\`+"\x00") {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAccountID, accountID)
	}
	return filepath.Join(r.dir, accountID, credentialFile), nil
}

// Load reads the credential of accountID
func (r *CredentialRepo) Load(ctx context.Context, accountID string) (*domain.Credential, error) {
	path, err := r.path(accountID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.Credential{AccountID: accountID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfiguration, path, err)
	}

	var cred domain.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrConfiguration, path, err)
	}
	cred.AccountID = accountID
	return &cred, nil
}

// Save writes the credential of accountID. The file is replaced atomically
// so a reader never sees a partial token pair.
func (r *CredentialRepo) Save(ctx context.Context, accountID string, cred *domain.Credential) error {
	path, err := r.path(accountID)
	if err != nil {
		return err
	}
	if err := cred.Validate(); err != nil {
		return err
	}

	stored := *cred
	stored.AccountID = accountID
	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".credential-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credential: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync credential: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
