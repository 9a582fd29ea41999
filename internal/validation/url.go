// Package validation holds the URL checks applied to user-provided RSS
// links before they are handed to the backend for ingestion.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// FeedURLValidator validates RSS URLs a user wants the backend to ingest.
type FeedURLValidator struct {
	// AllowLocalhost permits localhost URLs, useful in development.
	AllowLocalhost bool
	// AllowPrivateIPs permits private-range IP addresses.
	AllowPrivateIPs bool
	// MaxLength caps the accepted URL length.
	MaxLength int
}

// NewFeedURLValidator returns a validator with secure defaults.
func NewFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveFeedURLValidator returns a validator that accepts local
// addresses, for development against a local backend.
func NewPermissiveFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize checks a feed URL and returns its normalized form.
func (v *FeedURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	// Default to HTTPS when no scheme is given.
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}

	if err := v.validateHost(parsedURL.Host); err != nil {
		return "", err
	}
	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	return parsedURL.String(), nil
}

func (v *FeedURLValidator) validateHost(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}

	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}

	return nil
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

func isPrivateIP(ip net.IP) bool {
	private := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"127.0.0.0/8",
	}

	for _, cidr := range private {
		_, block, _ := net.ParseCIDR(cidr)
		if block != nil && block.Contains(ip) {
			return true
		}
	}

	if ip.To4() == nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
	}

	return false
}
