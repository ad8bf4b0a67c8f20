// Package auth guards the HTTP endpoints of the MCP server.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/sha1n/siterag/internal/config"
)

// DefaultPublicPaths bypass authentication.
var DefaultPublicPaths = []string{"/health"}

// APIKeyHeader carries the key for apikey authentication. A bearer token in
// the Authorization header is accepted as well.
const APIKeyHeader = "X-API-Key"

// authenticator reports whether a request carries valid credentials.
type authenticator func(r *http.Request) bool

// NewMiddleware creates an authentication middleware based on settings.
// Requests to publicPaths are never authenticated; nil selects
// DefaultPublicPaths.
func NewMiddleware(settings config.AuthSettings, publicPaths ...string) (func(http.Handler) http.Handler, error) {
	var check authenticator
	challenge := ""

	switch settings.Type {
	case config.AuthTypeNone, "":
		return func(next http.Handler) http.Handler { return next }, nil
	case config.AuthTypeBasic:
		if settings.Basic.Username == "" || settings.Basic.Password == "" {
			return nil, fmt.Errorf("basic auth requires non-empty username and password")
		}
		check = basicAuth(settings.Basic)
		challenge = `Basic realm="siterag"`
	case config.AuthTypeAPIKey:
		if len(settings.APIKeys) == 0 {
			return nil, fmt.Errorf("apikey auth requires at least one API key")
		}
		check = apiKeyAuth(settings.APIKeys)
	default:
		return nil, fmt.Errorf("unknown auth type: %s", settings.Type)
	}

	if publicPaths == nil {
		publicPaths = DefaultPublicPaths
	}
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] || check(r) {
				next.ServeHTTP(w, r)
				return
			}
			if challenge != "" {
				w.Header().Set("WWW-Authenticate", challenge)
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}, nil
}

func basicAuth(settings config.BasicAuthSettings) authenticator {
	return func(r *http.Request) bool {
		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(settings.Username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(settings.Password)) == 1
		return ok && userMatch && passMatch
	}
}

func apiKeyAuth(apiKeys []string) authenticator {
	return func(r *http.Request) bool {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				key = strings.TrimSpace(token)
			}
		}
		if key == "" {
			return false
		}

		valid := false
		for _, validKey := range apiKeys {
			// no early exit, every key is compared
			if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
				valid = true
			}
		}
		return valid
	}
}
