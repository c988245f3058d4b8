package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session holds the bearer token for the current login. Tokens are issued by
// the server's auth endpoint and stored in a mode-0600 file; this client only
// inspects the expiry claim, it never verifies signatures (that is the
// server's job).
type Session struct {
	mu        sync.RWMutex
	tokenFile string
	token     string
	expiresAt time.Time
}

// NewSession creates a session backed by the given token file
func NewSession(tokenFile string) *Session {
	s := &Session{tokenFile: tokenFile}
	s.loadFromFile()
	return s
}

// Token returns the current bearer token ("" when logged out)
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Valid reports whether a token is present and not yet expired
func (s *Session) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	if s.expiresAt.IsZero() {
		return true
	}
	return time.Now().Before(s.expiresAt)
}

// ExpiresAt returns the token expiry (zero if the token carries none)
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Store saves a freshly issued token to the token file and adopts it
func (s *Session) Store(token string) error {
	expiry, err := tokenExpiry(token)
	if err != nil {
		return fmt.Errorf("rejecting malformed session token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokenFile != "" {
		dir := filepath.Dir(s.tokenFile)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
		if err := os.WriteFile(s.tokenFile, []byte(token+"\n"), 0600); err != nil {
			return fmt.Errorf("failed to write token file: %w", err)
		}
	}

	s.token = token
	s.expiresAt = expiry
	return nil
}

// Clear forgets the token and removes the token file (logout)
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.expiresAt = time.Time{}
	if s.tokenFile != "" {
		os.Remove(s.tokenFile)
	}
}

func (s *Session) loadFromFile() {
	if s.tokenFile == "" {
		return
	}
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		return
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return
	}
	expiry, err := tokenExpiry(token)
	if err != nil {
		return
	}
	s.token = token
	s.expiresAt = expiry
}

// tokenExpiry reads the exp claim without verifying the signature
func tokenExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}
