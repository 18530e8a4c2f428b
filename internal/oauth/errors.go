package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RateLimitError is returned without a network call when a resource's quota
// is exhausted and not yet reset.
type RateLimitError struct {
	Resource string
	ResetAt  time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("api rate limit reached (%s; reset: %s)", e.Resource, e.ResetAt.Format(time.RFC3339))
}

// HTTPError is a non-2xx reply from the remote service
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("remote returned %s", e.Status)
}

// MessageFromError extracts a human-readable message: the body of a 401
// reply when present, otherwise the error text.
func MessageFromError(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized && httpErr.Body != "" {
		return httpErr.Body
	}
	return err.Error()
}
