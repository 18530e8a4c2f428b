package oauth

import (
	"net/http"
	"strconv"
	"time"
)

// Rate-limit response headers
const (
	HeaderRateLimitRemaining = "X-Rate-Limit-Remaining"
	HeaderRateLimitReset     = "X-Rate-Limit-Reset"
)

// initialRemaining seeds a first-seen resource so its first call is never blocked
const initialRemaining = 15

// RateLimitStatus is the last known quota of one resource
type RateLimitStatus struct {
	ResetAt   time.Time
	Remaining int
}

// Tracker keeps RateLimitStatus per resource key. It belongs to exactly one
// signing client and is not safe for concurrent use.
type Tracker struct {
	statuses map[string]*RateLimitStatus
	now      func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		statuses: make(map[string]*RateLimitStatus),
		now:      time.Now,
	}
}

// CanRequest reports whether a request for key may be issued: true when the
// key is unseen, its reset time has passed, or quota remains.
func (t *Tracker) CanRequest(key string) bool {
	st, ok := t.statuses[key]
	if !ok {
		return true
	}
	return !t.now().Before(st.ResetAt) || st.Remaining > 0
}

// Status returns the tracked status for key
func (t *Tracker) Status(key string) (RateLimitStatus, bool) {
	st, ok := t.statuses[key]
	if !ok {
		return RateLimitStatus{}, false
	}
	return *st, true
}

// Set overwrites the status for key
func (t *Tracker) Set(key string, status RateLimitStatus) {
	st := status
	t.statuses[key] = &st
}

// Update records the quota headers of a response for key. Unparseable or
// absent headers leave the corresponding field untouched.
func (t *Tracker) Update(key string, h http.Header) {
	if key == "" || h == nil {
		return
	}
	st, ok := t.statuses[key]
	if !ok {
		st = &RateLimitStatus{Remaining: initialRemaining}
		t.statuses[key] = st
	}
	if remaining, err := strconv.Atoi(h.Get(HeaderRateLimitRemaining)); err == nil {
		st.Remaining = remaining
	}
	if reset, err := strconv.ParseInt(h.Get(HeaderRateLimitReset), 10, 64); err == nil {
		st.ResetAt = time.Unix(reset, 0)
	}
}
