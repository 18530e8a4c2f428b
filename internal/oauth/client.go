package oauth

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	signatureMethod = "HMAC-SHA1"
	oauthVersion    = "1.0"

	// DefaultTimeout bounds every remote call made by a Client
	DefaultTimeout = 30 * time.Second
)

// Consumer is the process-wide application key pair
type Consumer struct {
	Key    string
	Secret string
}

// Request describes one call to sign. Token and TokenSecret are empty for
// the request-token step. Resource, when set, tags the call for rate-limit
// tracking.
type Request struct {
	Method      string
	URL         string
	Token       string
	TokenSecret string
	Params      url.Values
	Verifier    string
	Callback    string
	Resource    string
}

// Response is a fully read reply
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Client signs and executes requests for one consumer
type Client struct {
	consumer    Consumer
	endpoints   Endpoints
	httpClient  *http.Client
	compression bool
	limits      *Tracker
	nonce       func() string
	now         func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCompression asks the remote for gzip-encoded replies
func WithCompression(enabled bool) Option {
	return func(c *Client) { c.compression = enabled }
}

// WithEndpoints sets the token-exchange endpoints
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) { c.endpoints = e }
}

// WithNonce replaces the nonce generator
func WithNonce(fn func() string) Option {
	return func(c *Client) { c.nonce = fn }
}

// WithClock replaces the clock used for timestamps and rate limits
func WithClock(fn func() time.Time) Option {
	return func(c *Client) {
		c.now = fn
		c.limits.now = fn
	}
}

// NewClient creates a signing client for consumer
func NewClient(consumer Consumer, opts ...Option) *Client {
	c := &Client{
		consumer:   consumer,
		endpoints:  DefaultEndpoints(DefaultOAuthBaseURL),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limits:     NewTracker(),
		nonce:      randomNonce,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanRequest reports whether resource currently has quota
func (c *Client) CanRequest(resource string) bool {
	return c.limits.CanRequest(resource)
}

// signed is the outcome of signing one request
type signed struct {
	normalizedURL string
	params        pairs
	signature     string
}

// sign computes the HMAC-SHA1 signature for req. Query parameters already on
// the URL take part in the signature.
func (c *Client) sign(req Request) (*signed, *url.URL, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid request url: %w", err)
	}

	all := url.Values{}
	for k, vs := range u.Query() {
		all[k] = append(all[k], vs...)
	}
	for k, vs := range req.Params {
		all[k] = append(all[k], vs...)
	}

	all.Set("oauth_consumer_key", c.consumer.Key)
	all.Set("oauth_nonce", c.nonce())
	all.Set("oauth_signature_method", signatureMethod)
	all.Set("oauth_timestamp", strconv.FormatInt(c.now().Unix(), 10))
	all.Set("oauth_version", oauthVersion)
	if req.Token != "" {
		all.Set("oauth_token", req.Token)
	}
	if req.Verifier != "" {
		all.Set("oauth_verifier", req.Verifier)
	}
	if req.Callback != "" {
		all.Set("oauth_callback", req.Callback)
	}

	method := strings.ToUpper(req.Method)
	normalizedURL := NormalizeURL(u)
	params := encodeValues(all)
	base := method + "&" + Encode(normalizedURL) + "&" + Encode(params.join())
	key := Encode(c.consumer.Secret) + "&" + Encode(req.TokenSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))

	return &signed{
		normalizedURL: normalizedURL,
		params:        params,
		signature:     base64.StdEncoding.EncodeToString(mac.Sum(nil)),
	}, u, nil
}

// NewRequest builds a signed HTTP request without executing it. GET carries
// every parameter in the query string; POST carries them in an OAuth
// Authorization header and the caller parameters as the form body.
func (c *Client) NewRequest(ctx context.Context, req Request) (*http.Request, error) {
	s, _, err := c.sign(req)
	if err != nil {
		return nil, err
	}

	var httpReq *http.Request
	switch strings.ToUpper(req.Method) {
	case http.MethodGet, "":
		target := s.normalizedURL + "?" + s.params.join() + "&oauth_signature=" + Encode(s.signature)
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	case http.MethodPost:
		body := []byte(NormalizeParams(req.Params))
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, s.normalizedURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq.Header.Set("Authorization", authorizationHeader(s))
	default:
		return nil, fmt.Errorf("unsupported method %q", req.Method)
	}

	if c.compression {
		httpReq.Header.Set("Accept-Encoding", "gzip")
	}
	return httpReq, nil
}

// authorizationHeader renders OAuth realm="", k="v", ... with the signature last
func authorizationHeader(s *signed) string {
	var b strings.Builder
	b.WriteString(`OAuth realm=""`)
	for _, kv := range s.params {
		b.WriteString(", ")
		b.WriteString(kv.key)
		b.WriteString(`="`)
		b.WriteString(kv.value)
		b.WriteByte('"')
	}
	b.WriteString(`, oauth_signature="`)
	b.WriteString(Encode(s.signature))
	b.WriteByte('"')
	return b.String()
}

// Do signs and executes req and reads the whole reply. Transport errors are
// returned unmodified; non-2xx replies become *HTTPError. A tagged request
// whose resource is exhausted fails with *RateLimitError before any I/O.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Resource != "" && !c.limits.CanRequest(req.Resource) {
		st, _ := c.limits.Status(req.Resource)
		return nil, &RateLimitError{Resource: req.Resource, ResetAt: st.ResetAt}
	}

	httpReq, err := c.NewRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if req.Resource != "" {
		c.limits.Update(req.Resource, resp.Header)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// readBody reads resp, inflating it when the remote sent gzip
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip reply: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}
	return body, nil
}

func randomNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b)
}
