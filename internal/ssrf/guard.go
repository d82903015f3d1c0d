// Package ssrf validates user-supplied URLs against server-side request
// forgery before any fetch is attempted. Validation is a pure function of the
// literal hostname in the URL: it runs once, before the initial navigation,
// and does not resolve DNS or re-check redirects. That leaves a documented
// DNS-rebinding gap, kept deliberately to match the recorded behavior.
package ssrf

import (
	"net/netip"
	"net/url"
	"strings"

	"teashelf/internal/models"
)

// Verbatim rejection reasons, surfaced to the caller unchanged.
const (
	ReasonEmptyURL        = "URL cannot be empty"
	ReasonInvalidFormat   = "Invalid URL format"
	ReasonBadScheme       = "Only HTTP/HTTPS URLs are allowed"
	ReasonMissingHostname = "Invalid URL format: missing hostname"
	ReasonPrivateAddress  = "Cannot scrape private/local URLs"
)

// Result is the synchronous outcome of validating one URL.
type Result struct {
	Valid  bool
	Reason string
	Kind   models.RejectionKind
}

func reject(kind models.RejectionKind, reason string) Result {
	return Result{Valid: false, Reason: reason, Kind: kind}
}

// Hostnames rejected by exact, case-sensitive comparison.
var blockedLiterals = map[string]bool{
	"localhost":             true,
	"localhost.localdomain": true,
}

// Reserved/private IPv4 space. 172.16.0.0/12 covers 172.16.0.0-172.31.255.255.
var blockedV4Prefixes = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
}

// Validate checks scheme and hostname of the raw URL. It performs no network
// access and has no side effects.
func Validate(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return reject(models.RejectionInvalidFormat, ReasonEmptyURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return reject(models.RejectionInvalidFormat, ReasonInvalidFormat)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return reject(models.RejectionDisallowedProtocol, ReasonBadScheme)
	}

	// Hostname() strips the brackets off IPv6 literals.
	host := u.Hostname()
	if host == "" {
		return reject(models.RejectionInvalidFormat, ReasonMissingHostname)
	}

	if isPrivateHost(host) {
		return reject(models.RejectionPrivateAddress, ReasonPrivateAddress)
	}

	return Result{Valid: true}
}

// isPrivateHost reports whether the literal hostname falls into reserved or
// private address space.
func isPrivateHost(host string) bool {
	if blockedLiterals[host] {
		return true
	}

	// IPv6 literals always carry a colon. The fc/fd check is a coarse
	// two-character approximation of fc00::/7, not CIDR arithmetic; it only
	// applies to IPv6 literals so DNS names like fcbarcelona.com pass.
	if strings.Contains(host, ":") {
		if host == "::1" || host == "::" {
			return true
		}
		return strings.HasPrefix(host, "fc") || strings.HasPrefix(host, "fd")
	}

	if addr, err := netip.ParseAddr(host); err == nil && addr.Is4() {
		for _, p := range blockedV4Prefixes {
			if p.Contains(addr) {
				return true
			}
		}
	}

	return false
}
