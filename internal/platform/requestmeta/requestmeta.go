// Package requestmeta answers questions about where a request came from and
// where it may be sent next.
package requestmeta

import (
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls how the request scheme is resolved.
//
// X-Forwarded-Proto is only read when TrustForwardedProto is set, which is
// meant for deployments behind a TLS-terminating proxy that overwrites it.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// IsHTTPSWithPolicy reports whether r should be treated as HTTPS.
func IsHTTPSWithPolicy(r *http.Request, policy SchemePolicy) bool {
	return schemeOf(r, policy) == "https"
}

// SafeRedirectPath returns target when it is a path on this site and
// fallback otherwise. Absolute and scheme-relative URLs are rejected.
func SafeRedirectPath(target string, fallback string) string {
	target = strings.TrimSpace(target)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return fallback
	}
	return parsed.String()
}

// HasSameOriginProofWithPolicy reports whether the Origin header, or Referer
// when Origin is absent, names the scheme, host and port r was sent to.
func HasSameOriginProofWithPolicy(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	self, ok := requestOrigin(r, policy)
	if !ok {
		return false
	}
	claimed := strings.TrimSpace(r.Header.Get("Origin"))
	if claimed == "" {
		claimed = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if claimed == "" {
		return false
	}
	parsed, err := url.Parse(claimed)
	if err != nil {
		return false
	}
	other, ok := newOrigin(parsed.Scheme, parsed.Host)
	return ok && other == self
}

type origin struct {
	scheme string
	host   string
	port   string
}

func newOrigin(scheme, hostport string) (origin, bool) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	parsed, err := url.Parse("//" + strings.TrimSpace(hostport))
	if err != nil {
		return origin{}, false
	}
	o := origin{
		scheme: scheme,
		host:   strings.ToLower(parsed.Hostname()),
		port:   parsed.Port(),
	}
	if o.port == "" {
		o.port = defaultPort(scheme)
	}
	return o, o.scheme != "" && o.host != "" && o.port != ""
}

func requestOrigin(r *http.Request, policy SchemePolicy) (origin, bool) {
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	return newOrigin(schemeOf(r, policy), host)
}

func schemeOf(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		switch forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); forwarded {
		case "http", "https":
			return forwarded
		}
	}
	if r.TLS != nil {
		return "https"
	}
	if r.URL != nil && strings.EqualFold(r.URL.Scheme, "https") {
		return "https"
	}
	return "http"
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	}
	return ""
}
