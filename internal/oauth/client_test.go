package oauth

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClient(consumer Consumer, nonce string, ts int64, opts ...Option) *Client {
	opts = append([]Option{
		WithNonce(func() string { return nonce }),
		WithClock(func() time.Time { return time.Unix(ts, 0) }),
	}, opts...)
	return NewClient(consumer, opts...)
}

func TestSign_ReferenceVectors(t *testing.T) {
	tests := []struct {
		name      string
		consumer  Consumer
		nonce     string
		timestamp int64
		req       Request
		params    string
		signature string
	}{
		{
			name:      "oauth core photos example",
			consumer:  Consumer{Key: "dpf43f3p2l4k3l03", Secret: "kd94hf93k423kf44"},
			nonce:     "kllo9940pd9333jh",
			timestamp: 1191242096,
			req: Request{
				Method:      http.MethodGet,
				URL:         "http://photos.example.net/photos?file=vacation.jpg&size=original",
				Token:       "nnch734d00sl2jdk",
				TokenSecret: "pfkkdhi9sl3r4s00",
			},
			params:    "file=vacation.jpg&oauth_consumer_key=dpf43f3p2l4k3l03&oauth_nonce=kllo9940pd9333jh&oauth_signature_method=HMAC-SHA1&oauth_timestamp=1191242096&oauth_token=nnch734d00sl2jdk&oauth_version=1.0&size=original",
			signature: "tR3+Ty81lMeYAr/Fid0kMTYa/WM=",
		},
		{
			name:      "status update example",
			consumer:  Consumer{Key: "xvz1evFS4wEEPTGEFPHBog", Secret: "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw"},
			nonce:     "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg",
			timestamp: 1318622958,
			req: Request{
				Method:      http.MethodPost,
				URL:         "https://api.twitter.com/1.1/statuses/update.json?include_entities=true",
				Token:       "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
				TokenSecret: "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
				Params:      url.Values{"status": {"Hello Ladies + Gentlemen, a signed OAuth request!"}},
			},
			params:    "include_entities=true&oauth_consumer_key=xvz1evFS4wEEPTGEFPHBog&oauth_nonce=kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg&oauth_signature_method=HMAC-SHA1&oauth_timestamp=1318622958&oauth_token=370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb&oauth_version=1.0&status=Hello%20Ladies%20%2B%20Gentlemen%2C%20a%20signed%20OAuth%20request%21",
			signature: "hCtSmYh+iHYCEqBWrE7C7hYmtUk=",
		},
		{
			name:      "request token step without token",
			consumer:  Consumer{Key: "ck", Secret: "cs"},
			nonce:     "n1",
			timestamp: 1300000000,
			req:       Request{Method: http.MethodGet, URL: "https://api.example.com/oauth/request_token"},
			params:    "oauth_consumer_key=ck&oauth_nonce=n1&oauth_signature_method=HMAC-SHA1&oauth_timestamp=1300000000&oauth_version=1.0",
			signature: "ukT2B+QTGUjYd6vIFkHRlESifa4=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fixedClient(tt.consumer, tt.nonce, tt.timestamp)

			first, _, err := c.sign(tt.req)
			require.NoError(t, err)
			second, _, err := c.sign(tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.params, first.params.join())
			assert.Equal(t, tt.signature, first.signature)
			assert.Equal(t, first.params.join(), second.params.join())
			assert.Equal(t, first.signature, second.signature)
		})
	}
}

func TestNewRequest_GetCarriesEverythingInQuery(t *testing.T) {
	c := fixedClient(Consumer{Key: "dpf43f3p2l4k3l03", Secret: "kd94hf93k423kf44"}, "kllo9940pd9333jh", 1191242096)

	req, err := c.NewRequest(context.Background(), Request{
		Method:      http.MethodGet,
		URL:         "http://photos.example.net/photos?file=vacation.jpg&size=original",
		Token:       "nnch734d00sl2jdk",
		TokenSecret: "pfkkdhi9sl3r4s00",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Equal(t, "http", req.URL.Scheme)
	assert.Equal(t, "/photos", req.URL.Path)
	assert.Contains(t, req.URL.RawQuery, "file=vacation.jpg&oauth_consumer_key=dpf43f3p2l4k3l03")
	assert.Regexp(t, `&oauth_signature=tR3%2BTy81lMeYAr%2FFid0kMTYa%2FWM%3D$`, req.URL.RawQuery)
}

func TestNewRequest_PostUsesAuthorizationHeader(t *testing.T) {
	c := fixedClient(
		Consumer{Key: "xvz1evFS4wEEPTGEFPHBog", Secret: "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw"},
		"kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg", 1318622958,
	)

	req, err := c.NewRequest(context.Background(), Request{
		Method:      http.MethodPost,
		URL:         "https://api.twitter.com/1.1/statuses/update.json?include_entities=true",
		Token:       "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
		TokenSecret: "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
		Params:      url.Values{"status": {"Hello Ladies + Gentlemen, a signed OAuth request!"}},
	})
	require.NoError(t, err)

	expectedHeader := `OAuth realm="", include_entities="true", oauth_consumer_key="xvz1evFS4wEEPTGEFPHBog", ` +
		`oauth_nonce="kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg", oauth_signature_method="HMAC-SHA1", ` +
		`oauth_timestamp="1318622958", oauth_token="370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb", ` +
		`oauth_version="1.0", status="Hello%20Ladies%20%2B%20Gentlemen%2C%20a%20signed%20OAuth%20request%21", ` +
		`oauth_signature="hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D"`

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://api.twitter.com/1.1/statuses/update.json", req.URL.String())
	assert.Equal(t, expectedHeader, req.Header.Get("Authorization"))
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "status=Hello%20Ladies%20%2B%20Gentlemen%2C%20a%20signed%20OAuth%20request%21", string(body))
}

func TestNewRequest_UnsupportedMethod(t *testing.T) {
	c := NewClient(Consumer{Key: "k", Secret: "s"})

	_, err := c.NewRequest(context.Background(), Request{Method: http.MethodDelete, URL: "https://example.com/"})

	assert.Error(t, err)
}

func TestNewRequest_FreshNonceAndTimestamp(t *testing.T) {
	c := NewClient(Consumer{Key: "k", Secret: "s"})

	a, err := c.NewRequest(context.Background(), Request{Method: http.MethodGet, URL: "https://example.com/x"})
	require.NoError(t, err)
	b, err := c.NewRequest(context.Background(), Request{Method: http.MethodGet, URL: "https://example.com/x"})
	require.NoError(t, err)

	assert.NotEqual(t, a.URL.Query().Get("oauth_nonce"), b.URL.Query().Get("oauth_nonce"))
	assert.NotEmpty(t, a.URL.Query().Get("oauth_timestamp"))
}

func TestDo_UpdatesRateLimitAndBlocksWhenExhausted(t *testing.T) {
	hits := 0
	reset := time.Now().Add(15 * time.Minute).Unix()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set(HeaderRateLimitRemaining, "0")
		w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(reset, 10))
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := NewClient(Consumer{Key: "k", Secret: "s"})
	req := Request{Method: http.MethodGet, URL: ts.URL + "/statuses/home_timeline.json", Resource: "/statuses/home_timeline"}

	assert.True(t, c.CanRequest("/statuses/home_timeline"))

	_, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.False(t, c.CanRequest("/statuses/home_timeline"))

	_, err = c.Do(context.Background(), req)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "/statuses/home_timeline", rlErr.Resource)
	assert.Equal(t, reset, rlErr.ResetAt.Unix())
	assert.Equal(t, 1, hits, "rate-limited request must not reach the network")
}

func TestDo_UntaggedRequestIgnoresLimits(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderRateLimitRemaining, "0")
		w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := NewClient(Consumer{Key: "k", Secret: "s"})
	for i := 0; i < 2; i++ {
		resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})
		require.NoError(t, err)
		assert.Equal(t, "ok", string(resp.Body))
	}
}

func TestDo_DecompressesGzipWhenRequested(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "gzip" {
			w.Write([]byte("plain"))
			return
		}
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte(`{"id":42}`))
		gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer ts.Close()

	c := NewClient(Consumer{Key: "k", Secret: "s"}, WithCompression(true))

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})
	require.NoError(t, err)

	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, resp.DecodeJSON(&out))
	assert.Equal(t, 42, out.ID)
}

func TestDo_NonSuccessBecomesHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Invalid / expired Token"))
	}))
	defer ts.Close()

	c := NewClient(Consumer{Key: "k", Secret: "s"})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "Invalid / expired Token", MessageFromError(err))
}

func TestDo_TransportErrorPropagates(t *testing.T) {
	c := NewClient(Consumer{Key: "k", Secret: "s"}, WithTimeout(time.Second))

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: "http://127.0.0.1:1/"})

	require.Error(t, err)
	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}
