package oauth

import (
	"net/url"
	"sort"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// Encode percent-encodes s over its UTF-8 bytes. Only the unreserved set
// A-Z a-z 0-9 - . _ ~ passes through.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// pair is an already percent-encoded key/value
type pair struct {
	key   string
	value string
}

type pairs []pair

func (p pairs) Len() int      { return len(p) }
func (p pairs) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p pairs) Less(i, j int) bool {
	if p[i].key == p[j].key {
		return p[i].value < p[j].value
	}
	return p[i].key < p[j].key
}

// encodeValues encodes every key/value of v and sorts by encoded key then value
func encodeValues(v url.Values) pairs {
	out := make(pairs, 0, len(v))
	for k, vs := range v {
		ek := Encode(k)
		for _, val := range vs {
			out = append(out, pair{key: ek, value: Encode(val)})
		}
	}
	sort.Sort(out)
	return out
}

// join renders pairs as k=v&k=v
func (p pairs) join() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.key)
		b.WriteByte('=')
		b.WriteString(kv.value)
	}
	return b.String()
}

// NormalizeParams returns the normalized parameter string for v
func NormalizeParams(v url.Values) string {
	return encodeValues(v).join()
}

// NormalizeURL returns scheme://host[:port]/path with the query removed, the
// scheme and host lowercased and the default port dropped.
func NormalizeURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" {
		if !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
			host += ":" + port
		}
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}
