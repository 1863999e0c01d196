// Package ginrest layers structured JSON error routing on top of a Gin
// engine. An API instance owns a base path, a registry of error handlers
// keyed by error identity, and optional namespaces with registries of their
// own. Errors raised while handling a request (panics, apierr aborts, or
// errors recorded on the Gin context) are translated into a consistent JSON
// envelope, with custom handlers consulted most specific first.
package ginrest

import (
	"os"
	"strings"
)

// Config holds the behavior toggles of an API instance. The zero value is
// not useful; start from DefaultConfig or FromEnv.
type Config struct {
	// BasePath is the mount point of the API group, e.g. "/api/v1".
	BasePath string

	// CatchAll404s formats every unmatched path as JSON, even outside the
	// API mount. When false, 404s for paths the API does not own are left
	// to the framework's plain-text default.
	CatchAll404s bool

	// Error404Help appends a "did you mean" hint to JSON 404 messages when
	// the failing path closely matches a registered route.
	Error404Help bool

	// IncludeMessage controls whether default error bodies carry a
	// "message" key. Handler-provided bodies are never touched.
	IncludeMessage bool

	// ServeChallengeOn401 adds a WWW-Authenticate basic challenge to 401
	// responses.
	ServeChallengeOn401 bool

	// Realm is the authentication realm used for the 401 challenge.
	Realm string

	// PropagateExceptions re-panics unhandled non-HTTP errors to the caller
	// instead of rendering a 500, for test harnesses and debuggers. When
	// nil, propagation follows the framework mode: enabled under gin debug
	// mode, disabled otherwise. Registered handlers always win over
	// propagation.
	PropagateExceptions *bool
}

// DefaultConfig returns the production defaults: JSON errors under "/", 404
// help and messages on, no catch-all and no challenge.
func DefaultConfig() Config {
	return Config{
		BasePath:       "/",
		Error404Help:   true,
		IncludeMessage: true,
		Realm:          "ginrest",
	}
}

// FromEnv reads the configuration from environment variables, applying the
// defaults of DefaultConfig for anything unset.
//
// Recognized keys: API_BASE_PATH, CATCH_ALL_404S, ERROR_404_HELP,
// ERROR_INCLUDE_MESSAGE, SERVE_CHALLENGE_ON_401, AUTH_REALM and
// PROPAGATE_EXCEPTIONS (tri-state: unset defers to the framework mode).
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.BasePath = normalizeBasePath(getenv("API_BASE_PATH", cfg.BasePath))
	cfg.CatchAll404s = getbool("CATCH_ALL_404S", cfg.CatchAll404s)
	cfg.Error404Help = getbool("ERROR_404_HELP", cfg.Error404Help)
	cfg.IncludeMessage = getbool("ERROR_INCLUDE_MESSAGE", cfg.IncludeMessage)
	cfg.ServeChallengeOn401 = getbool("SERVE_CHALLENGE_ON_401", cfg.ServeChallengeOn401)
	cfg.Realm = getenv("AUTH_REALM", cfg.Realm)
	if v, ok := os.LookupEnv("PROPAGATE_EXCEPTIONS"); ok && v != "" {
		b := getbool("PROPAGATE_EXCEPTIONS", false)
		cfg.PropagateExceptions = &b
	}
	return cfg
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

// normalizeBasePath ensures a leading '/' and strips trailing '/' (except
// for the root path).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
