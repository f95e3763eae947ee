// Package server normalizes and validates HTTP origins for WebSocket requests
// to enforce configured access control.
package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"
)

// normalizeOrigins canonicalizes the configured allow-list and reports
// whether a wildcard entry was present.
func normalizeOrigins(origins []string) ([]string, bool) {
	normalized := make([]string, 0, len(origins))
	allowAll := false

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			allowAll = true
			continue
		}

		canonical, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Printf("Ignoring invalid origin in configuration: %q", origin)
			continue
		}
		normalized = append(normalized, canonical)
	}

	if len(normalized) == 0 {
		normalized = nil
	}
	return normalized, allowAll
}

// normalizeOrigin reduces an origin to lower-cased scheme://host form.
func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// checkOrigin is the upgrader hook deciding whether a WebSocket upgrade is
// accepted. Requests without a valid Origin header are rejected.
func checkOrigin(r *http.Request) bool {
	header := r.Header.Get("Origin")
	canonical, ok := normalizeOrigin(header)
	if ok {
		configMu.RLock()
		defer configMu.RUnlock()
		if allowAllOrigins {
			return true
		}
		if _, allowed := allowedOrigins[canonical]; allowed {
			return true
		}
	}

	log.Printf("Blocked WebSocket connection from disallowed origin: %q", header)
	return false
}
