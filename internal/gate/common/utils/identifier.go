package utils

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeIdentifier reduces a raw URL, domain, or app identifier to its
// canonical form used as the policy key everywhere in the engine:
// - Lowercased and trimmed
// - No scheme, port, path, query, or fragment
// - No "www." prefix
func NormalizeIdentifier(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("identifier must not be empty")
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Hostname() == "" {
			return "", fmt.Errorf("unparseable identifier: %q", raw)
		}
		s = u.Hostname()
	} else {
		// Bare host, possibly with port or path attached.
		if i := strings.IndexAny(s, "/?#"); i >= 0 {
			s = s[:i]
		}
		if i := strings.LastIndexByte(s, ':'); i >= 0 && !strings.Contains(s, "]") {
			s = s[:i]
		}
	}

	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, ".")
	if s == "" {
		return "", fmt.Errorf("unparseable identifier: %q", raw)
	}
	return s, nil
}

// RegistrableDomain returns the eTLD+1 of a normalized host, falling back
// to the host itself when the public suffix list cannot parse it (app
// identifiers, bare hostnames).
func RegistrableDomain(host string) string {
	apex, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return apex
}
