package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexerp/ops-console/internal/credstore"
	"github.com/nexerp/ops-console/internal/utils"
)

// refreshResponse is the wire shape of POST /auth/refresh. The backend may
// re-resolve tenant context on refresh; absent fields keep the stored values.
type refreshResponse struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	TenantID        string `json:"tenant_id,omitempty"`
	TenantSubdomain string `json:"tenant_subdomain,omitempty"`
}

type refreshResult struct {
	token string
	err   error
}

// Coordinator serializes credential refreshes for one client instance.
//
// At most one refresh network call is in flight at any time. Callers that hit
// credential expiry while a refresh is already running are parked on a waiter
// channel and settled - exactly once each - when the episode ends. The flag
// and the waiter list are owned by the mutex; nothing touches them outside it.
//
// The refresh call goes out over a bare http.Client that is not routed back
// through the request client, so a 401 on the refresh call itself can never
// re-enter this state machine.
type Coordinator struct {
	baseURL    string
	scope      Scope
	store      credstore.Store
	terminator *Terminator
	httpClient *http.Client
	timeout    time.Duration

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// NewCoordinator builds the refresh state machine for one scope.
func NewCoordinator(baseURL string, scope Scope, store credstore.Store, terminator *Terminator, timeout time.Duration) *Coordinator {
	return &Coordinator{
		baseURL:    baseURL,
		scope:      scope,
		store:      store,
		terminator: terminator,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// FreshToken blocks until a fresh access token is available or the session is
// declared dead. The first caller of an episode performs the refresh; every
// concurrent caller joins the same episode and receives its outcome. A caller
// whose own context ends stops waiting without disturbing the episode - the
// refresh still completes and settles the store for everyone else.
func (c *Coordinator) FreshToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	res := c.doRefresh()

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.mu.Unlock()

	// Channels are buffered, so settling never blocks on a waiter that
	// already gave up. Waiters are woken in append order but each replays
	// its own request independently; completion order is not guaranteed.
	for _, ch := range waiters {
		ch <- res
	}
	return res.token, res.err
}

func (c *Coordinator) doRefresh() refreshResult {
	creds, ok := c.store.Get()
	if !ok || creds.RefreshToken == "" {
		log.Warn().Str("scope", c.scope.Name).Msg("credential expiry with no refresh token, ending session")
		c.terminator.Terminate(creds)
		return refreshResult{err: &SessionExpiredError{Cause: ErrNoRefreshToken}}
	}

	// Detached context: the outcome is shared by every queued caller, so the
	// refresh must not inherit any single caller's cancellation. Queued
	// callers still time out independently through their own contexts.
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	fresh, err := c.callRefresh(ctx, creds)
	if err != nil {
		log.Warn().Err(err).Str("scope", c.scope.Name).Msg("token refresh failed, ending session")
		c.terminator.Terminate(creds)
		return refreshResult{err: &SessionExpiredError{Cause: err}}
	}

	next := credstore.Credentials{
		AccessToken:     fresh.AccessToken,
		RefreshToken:    fresh.RefreshToken,
		TenantID:        creds.TenantID,
		TenantSubdomain: creds.TenantSubdomain,
	}
	if fresh.TenantID != "" {
		next.TenantID = fresh.TenantID
	}
	if fresh.TenantSubdomain != "" {
		next.TenantSubdomain = fresh.TenantSubdomain
	}
	c.store.Set(next)

	log.Debug().
		Str("scope", c.scope.Name).
		Str("token", utils.MaskKey(next.AccessToken)).
		Msg("session refreshed")
	return refreshResult{token: next.AccessToken}
}

func (c *Coordinator) callRefresh(ctx context.Context, creds credstore.Credentials) (*refreshResponse, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": creds.RefreshToken})
	if err != nil {
		return nil, fmt.Errorf("encoding refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.scope.TenantHeaderOnRefresh && creds.TenantID != "" {
		req.Header.Set(HeaderTenantID, creds.TenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, body)
	}

	var fresh refreshResponse
	if err := json.Unmarshal(body, &fresh); err != nil {
		return nil, fmt.Errorf("parsing refresh response: %w", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		return nil, fmt.Errorf("refresh response missing token pair")
	}
	return &fresh, nil
}
