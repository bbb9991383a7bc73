// Package jobber provides the authenticated client for the Jobber GraphQL
// API. Execute attaches the current bearer token and re-authenticates
// transparently on a 401, so callers are written against an
// always-authenticated abstraction.
package jobber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/adapter/otel"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/config"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/credentials"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/port/crmapi"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/resilience"
)

// versionHeader pins the Jobber GraphQL schema version on every call.
const versionHeader = "X-JOBBER-GRAPHQL-VERSION"

// refresher is swappable for testing.
type refresher interface {
	Refresh(ctx context.Context, creds credentials.Credentials) (TokenPair, error)
}

// Client talks to the Jobber GraphQL endpoint.
type Client struct {
	graphqlURL string
	apiVersion string
	store      *credentials.Store
	auth       refresher
	httpClient *http.Client
	breaker    *resilience.Breaker
	metrics    *otel.Metrics
	refresh    singleflight.Group
}

var _ crmapi.Executor = (*Client)(nil)

// NewClient creates a Jobber client reading tokens from the given store.
// Outbound calls share one HTTP client with the configured timeout and an
// instrumented transport.
func NewClient(cfg config.Jobber, store *credentials.Store) *Client {
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return &Client{
		graphqlURL: cfg.GraphQLURL,
		apiVersion: cfg.APIVersion,
		store:      store,
		auth:       NewAuthenticator(cfg.TokenURL, httpClient),
		httpClient: httpClient,
	}
}

// SetBreaker attaches a circuit breaker to outgoing GraphQL calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SetMetrics attaches metric instruments to outgoing calls and refreshes.
func (c *Client) SetMetrics(m *otel.Metrics) {
	c.metrics = m
}

// Execute sends the operation with the current bearer token. On a 401 it
// refreshes the token pair (once, shared across concurrent requests),
// updates the store, and resends the identical operation exactly once.
func (c *Client) Execute(ctx context.Context, op crmapi.Operation) (*crmapi.Response, error) {
	start := time.Now()
	resp, err := c.execute(ctx, op)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.CountCRMCall(ctx, outcome, time.Since(start).Seconds())

	return resp, err
}

func (c *Client) execute(ctx context.Context, op crmapi.Operation) (*crmapi.Response, error) {
	creds := c.store.Snapshot()

	status, body, err := c.post(ctx, op, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		token, err := c.reauthenticate(ctx, creds)
		if err != nil {
			return nil, err
		}
		status, body, err = c.post(ctx, op, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, errors.New("jobber: unauthorized after token refresh")
		}
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("jobber API error %d: %s", status, truncate(body, 200))
	}

	var resp crmapi.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("jobber: parse response: %w", err)
	}
	return &resp, nil
}

// post performs one GraphQL round-trip and returns the raw status and body.
// A non-nil error means the call never produced an HTTP response.
func (c *Client) post(ctx context.Context, op crmapi.Operation, token string) (int, []byte, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return 0, nil, fmt.Errorf("jobber: marshal operation: %w", err)
	}

	var status int
	var body []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("jobber: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(versionHeader, c.apiVersion)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("jobber: request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("jobber: read response: %w", err)
		}
		status = resp.StatusCode
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Do(call)
	} else {
		err = call()
	}
	if err != nil {
		return 0, nil, err
	}
	return status, body, nil
}

// reauthenticate refreshes the token pair. Concurrent 401s collapse into a
// single refresh call; a request whose snapshot is already stale reuses the
// winner's token instead of burning another refresh token.
func (c *Client) reauthenticate(ctx context.Context, stale credentials.Credentials) (string, error) {
	v, err, _ := c.refresh.Do("token", func() (any, error) {
		current := c.store.Snapshot()
		if current.AccessToken != stale.AccessToken {
			return current.AccessToken, nil
		}

		pair, err := c.auth.Refresh(ctx, current)
		if err != nil {
			c.metrics.CountTokenRefresh(ctx, "error")
			slog.Warn("jobber token refresh failed", "error", err)
			return nil, err
		}
		c.store.Update(pair.AccessToken, pair.RefreshToken)
		c.metrics.CountTokenRefresh(ctx, "ok")
		slog.Info("jobber token refreshed")
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
