// Package oauth implements OAuth 1.0a (HMAC-SHA1) request signing, the
// request-token / access-token / xAuth exchanges, and per-resource rate-limit
// bookkeeping for a signing client.
//
// A Client is built once per consumer key pair and, for authenticated calls,
// per access token. Requests tagged with a resource key are checked against
// the client's Tracker before any network call is made.
package oauth
