package generalutils

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// NewLineMatcherRegex Regex to remove all new lines.
var NewLineMatcherRegex = regexp.MustCompile(`\r?\n`)

// ClientIP will return client ip from request.
func ClientIP(r *http.Request) string {
	ipAddress := r.Header.Get("X-Real-Ip")
	if ipAddress == "" {
		ipAddress = r.Header.Get("X-Forwarded-For")
	}

	if ipAddress == "" {
		ipAddress = r.RemoteAddr
	}

	return ipAddress
}

// GetRequestScheme returns the scheme seen by the client.
func GetRequestScheme(r *http.Request) string {
	// Check if it is https
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		return "https"
	}

	// RFC 7239
	proto, _ := parseForwarded(r.Header.Get("Forwarded"))
	if proto != "" {
		return proto
	}

	// Default
	return "http"
}

// GetRequestURI returns the full URI seen by the client.
func GetRequestURI(r *http.Request) string {
	return fmt.Sprintf("%s://%s%s", GetRequestScheme(r), GetRequestHost(r), r.URL.RequestURI())
}

// GetRequestHost returns the host seen by the client.
func GetRequestHost(r *http.Request) string {
	// not standard, but most popular
	host := r.Header.Get("X-Forwarded-Host")
	if host != "" {
		return host
	}

	// RFC 7239
	_, host = parseForwarded(r.Header.Get("Forwarded"))
	if host != "" {
		return host
	}

	// if all else fails fall back to request host
	return r.Host
}

// RedactQueryParam returns the request URI with the query parameter value hidden.
func RedactQueryParam(r *http.Request, param string) string {
	// Check if param is present
	q := r.URL.Query()
	if param == "" || !q.Has(param) {
		return GetRequestURI(r)
	}

	// Replace value
	q.Set(param, "REDACTED")

	return fmt.Sprintf("%s://%s%s?%s", GetRequestScheme(r), GetRequestHost(r), r.URL.EscapedPath(), q.Encode())
}

func parseForwarded(forwarded string) (proto, host string) {
	if forwarded == "" {
		return proto, host
	}

	for _, forwardedPair := range strings.Split(forwarded, ";") {
		if tv := strings.SplitN(forwardedPair, "=", 2); len(tv) == 2 { //nolint: gomnd // No constant for that
			token := strings.TrimSpace(tv[0])
			value := strings.TrimSpace(strings.Trim(tv[1], `"`))

			switch strings.ToLower(token) {
			case "proto":
				proto = value
			case "host":
				host = value
			}
		}
	}

	return proto, host
}
