package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ircgateway/internal/domain"
	"ircgateway/internal/oauth"
)

// PasswordVerifier checks a username/password pair with HTTP Basic auth
type PasswordVerifier struct {
	httpClient *http.Client
	baseURL    string
}

// NewPasswordVerifier creates a verifier for the REST root baseURL
func NewPasswordVerifier(baseURL string, timeout time.Duration) *PasswordVerifier {
	return &PasswordVerifier{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// VerifyPassword returns the remote account for username/password
func (v *PasswordVerifier) VerifyPassword(ctx context.Context, username, password string) (*domain.RemoteUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/account/verify_credentials.json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(username, password)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &oauth.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var user domain.RemoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &user, nil
}
