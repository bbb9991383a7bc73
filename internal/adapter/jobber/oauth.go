package jobber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/credentials"
)

// ErrAuthFailed marks a failed refresh-token exchange. The current request
// fails, but the process keeps serving: a later request may succeed once the
// credentials are repaired externally.
var ErrAuthFailed = errors.New("jobber: authentication failed")

// TokenPair is the result of a successful refresh-token exchange.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticator exchanges a refresh token for a new token pair at the Jobber
// OAuth token endpoint. It never retries: Jobber invalidates the refresh
// token on each use, and retry policy belongs to the caller.
type Authenticator struct {
	tokenURL   string
	httpClient *http.Client
}

// NewAuthenticator creates an Authenticator for the given token endpoint.
func NewAuthenticator(tokenURL string, httpClient *http.Client) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Authenticator{tokenURL: tokenURL, httpClient: httpClient}
}

// Refresh performs the refresh_token grant and returns the new token pair.
// The caller must persist the pair before any subsequent CRM call.
func (a *Authenticator) Refresh(ctx context.Context, creds credentials.Credentials) (TokenPair, error) {
	form := url.Values{}
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", creds.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: create request: %w", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: token request: %w", ErrAuthFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: read token response: %w", ErrAuthFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return TokenPair{}, fmt.Errorf("%w: token endpoint status %d: %s", ErrAuthFailed, resp.StatusCode, truncate(body, 200))
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("%w: parse token response: %w", ErrAuthFailed, err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return TokenPair{}, fmt.Errorf("%w: token response missing access_token or refresh_token", ErrAuthFailed)
	}

	return pair, nil
}

// truncate limits response bodies embedded in error messages.
func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
