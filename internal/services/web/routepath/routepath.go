// Package routepath stores canonical HTTP paths for the web service.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root         = "/"
	Health       = "/healthz"
	AuthPrefix   = "/auth/"
	AuthSignIn   = "/auth/signin"
	AuthSignOut  = "/auth/signout"
	AuthSession  = "/auth/session"
	App          = "/app"
	AppPrefix    = "/app/"
	AppStats     = "/app/stats"
	StaticPrefix = "/static/"
)

// DefaultCallback is where sign-in lands when no callback was requested.
const DefaultCallback = App

// WithQuery appends non-empty query values to path in key order.
func WithQuery(path string, pairs ...string) string {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := strings.TrimSpace(pairs[i])
		value := strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		values.Set(key, value)
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}
