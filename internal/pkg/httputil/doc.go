// Package httputil provides the JSON response helpers shared by API handlers.
//
// Handlers write every response through these helpers so success bodies and
// error envelopes look the same across endpoints.
package httputil
