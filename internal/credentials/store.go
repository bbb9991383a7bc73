// Package credentials holds the process-wide OAuth2 credential state for the
// Jobber API. The store is the only mutable shared state in the gateway:
// every outbound call reads a consistent snapshot, and only a successful
// token refresh writes back.
package credentials

import "sync"

// Credentials is an immutable snapshot of the OAuth2 credential set.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// Store guards the credential set. Jobber invalidates a refresh token on
// each use, so readers must never observe a half-applied token pair.
type Store struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewStore creates a Store seeded with the configured client credentials and
// the initial token pair.
func NewStore(clientID, clientSecret, accessToken, refreshToken string) *Store {
	return &Store{
		creds: Credentials{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ClientID:     clientID,
			ClientSecret: clientSecret,
		},
	}
}

// Snapshot returns a copy of the current credential set.
func (s *Store) Snapshot() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Update atomically replaces the token pair. The client id and secret are
// fixed for the process lifetime and are left untouched.
func (s *Store) Update(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.AccessToken = accessToken
	s.creds.RefreshToken = refreshToken
}
