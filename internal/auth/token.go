package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// TokenProvider yields the request-authentication token attached to every
// mutating backend call.
type TokenProvider interface {
	Token() (string, error)
}

// StaticToken returns a fixed token value
type StaticToken struct {
	value string
}

// NewStaticToken creates a provider for a token known at startup
func NewStaticToken(value string) *StaticToken {
	return &StaticToken{value: value}
}

// Token returns the configured token
func (s *StaticToken) Token() (string, error) {
	if s.value == "" {
		return "", fmt.Errorf("no token configured")
	}
	return s.value, nil
}

// CookieFileToken reads the token from a Netscape-format cookie file, looking
// up the cookie the backend names by convention (csrftoken).
type CookieFileToken struct {
	path       string
	cookieName string
}

// NewCookieFileToken creates a provider backed by a cookie file
func NewCookieFileToken(path, cookieName string) *CookieFileToken {
	return &CookieFileToken{path: path, cookieName: cookieName}
}

// Token scans the cookie file for the named cookie
func (c *CookieFileToken) Token() (string, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return "", fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Netscape format: domain, flag, path, secure, expiry, name, value
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		if fields[5] == c.cookieName {
			return fields[6], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read cookie file: %w", err)
	}

	return "", fmt.Errorf("cookie %q not found in %s", c.cookieName, c.path)
}

// Chain tries each provider in order and returns the first token found. This
// mirrors the cookie-then-meta-tag fallback the dashboard uses.
type Chain struct {
	providers []TokenProvider
}

// NewChain creates a fallback chain of token providers
func NewChain(providers ...TokenProvider) *Chain {
	return &Chain{providers: providers}
}

// Token returns the first available token
func (c *Chain) Token() (string, error) {
	var lastErr error
	for _, p := range c.providers {
		token, err := p.Token()
		if err == nil && token != "" {
			return token, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return "", fmt.Errorf("no token available: %w", lastErr)
	}
	return "", fmt.Errorf("no token providers configured")
}
