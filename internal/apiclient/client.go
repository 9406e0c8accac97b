// Package apiclient implements the authenticated HTTP client for the ops
// backend.
//
// FILES:
//   - client.go:  Client (request surface), scopes, options
//   - attach.go:  pure header attachment for outgoing requests
//   - refresh.go: single-flight refresh coordinator
//   - session.go: idempotent session terminator
//   - errors.go:  error taxonomy (APIError, SessionExpiredError)
//
// A request that needed a token refresh completes exactly as if it had
// succeeded on the first attempt, just slower. A request whose refresh failed
// completes as a normal rejected call carrying SessionExpiredError. Failures
// unrelated to credential expiry pass through untouched.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexerp/ops-console/internal/config"
	"github.com/nexerp/ops-console/internal/credstore"
	"github.com/nexerp/ops-console/internal/utils"
)

// Scope selects which of the two isolated sessions a client operates on. One
// generic client implementation is instantiated twice - tenant and platform -
// instead of duplicating the refresh logic per surface.
type Scope struct {
	// Name tags log fields and audit rows.
	Name string

	// Namespace is the credstore namespace backing this scope.
	Namespace string

	// TenantHeaderOnRefresh makes the refresh call carry the tenant routing
	// header. The platform backend requires it to route the fixed
	// administrative tenant resolved at login.
	TenantHeaderOnRefresh bool
}

var (
	// TenantScope is the regular tenant-user surface.
	TenantScope = Scope{Name: "tenant", Namespace: credstore.NamespaceTenant}

	// PlatformScope is the isolated platform-admin surface.
	PlatformScope = Scope{Name: "platform", Namespace: credstore.NamespacePlatform, TenantHeaderOnRefresh: true}
)

// RequestEvent describes one completed API call for the audit trail.
type RequestEvent struct {
	RequestID string
	Scope     string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
	Replayed  bool
}

// Recorder receives request events. Implementations must not fail the
// request; recording is strictly observational.
type Recorder interface {
	Record(e RequestEvent)
}

// Client is the outward-facing call surface. It composes header attachment,
// the underlying transport and the refresh coordinator's error hook: a 401
// triggers exactly one coordinated refresh followed by exactly one replay of
// the original request. The one-retry bound is structural - the replay path
// cannot re-enter the coordinator - so no per-request marker is needed.
type Client struct {
	baseURL        string
	scope          Scope
	store          credstore.Store
	coordinator    *Coordinator
	terminator     *Terminator
	httpClient     *http.Client
	recorder       Recorder
	refreshTimeout time.Duration
	onTerminate    func(loginURL string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRefreshTimeout bounds the refresh call.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) { c.refreshTimeout = d }
}

// WithRecorder wires a request audit recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithTerminateFunc sets the callback invoked once when the session ends
// irrecoverably. It receives the login location to send the user to.
func WithTerminateFunc(fn func(loginURL string)) Option {
	return func(c *Client) { c.onTerminate = fn }
}

// New builds a client for one scope. loginHost shapes the login locations
// surfaced on terminal failure.
func New(baseURL, loginHost string, scope Scope, store credstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		scope:          scope,
		store:          store,
		httpClient:     &http.Client{Timeout: config.DefaultRequestTimeout},
		refreshTimeout: config.DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.terminator = NewTerminator(store, loginHost, c.onTerminate)
	c.coordinator = NewCoordinator(c.baseURL, scope, store, c.terminator, c.refreshTimeout)
	return c
}

// NewTenantClient builds the tenant-scoped client from config.
func NewTenantClient(cfg *config.Config, store credstore.Store, opts ...Option) *Client {
	base := []Option{
		WithTimeout(cfg.API.RequestTimeout),
		WithRefreshTimeout(cfg.Auth.RefreshTimeout),
	}
	return New(cfg.API.TenantBaseURL, cfg.Auth.LoginHost, TenantScope, store, append(base, opts...)...)
}

// NewPlatformClient builds the isolated platform-admin client from config.
func NewPlatformClient(cfg *config.Config, store credstore.Store, opts ...Option) *Client {
	base := []Option{
		WithTimeout(cfg.API.RequestTimeout),
		WithRefreshTimeout(cfg.Auth.RefreshTimeout),
	}
	return New(cfg.API.PlatformBaseURL, cfg.Auth.LoginHost, PlatformScope, store, append(base, opts...)...)
}

// Store returns the credential store backing this client.
func (c *Client) Store() credstore.Store {
	return c.store
}

// Terminator returns the session terminator, shared with the login flows so
// a fresh login can re-arm it.
func (c *Client) Terminator() *Terminator {
	return c.terminator
}

// BaseURL returns the backend origin this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes the response into out (may be nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE and decodes the response into out (may be nil).
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do issues a request with automatic credential attachment and, on credential
// expiry, a single coordinated refresh-and-replay. The body is marshaled once
// up front so the replay sends identical bytes.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = utils.MarshalNoEscape(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	requestID := uuid.New().String()
	start := time.Now()
	replayed := false

	status, respBody, err := c.send(ctx, method, path, payload, requestID, "")
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		token, rerr := c.coordinator.FreshToken(ctx)
		if rerr != nil {
			c.record(requestID, method, path, status, start, false)
			return rerr
		}
		replayed = true
		status, respBody, err = c.send(ctx, method, path, payload, requestID, token)
		if err != nil {
			return err
		}
		// A second 401 on the replayed request falls through to the normal
		// error path below; the coordinator is never re-entered for the same
		// logical request.
	}

	c.record(requestID, method, path, status, start, replayed)

	if status < 200 || status > 299 {
		return newAPIError(status, respBody)
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// send performs one attempt. tokenOverride carries the freshly refreshed
// access token on the replay, taking precedence over the stored one.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, requestID, tokenOverride string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ops-console/1.0")
	req.Header.Set(HeaderRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	creds, _ := c.store.Get()
	if tokenOverride != "" {
		creds.AccessToken = tokenOverride
	}
	attach(req, creds)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) record(requestID, method, path string, status int, start time.Time, replayed bool) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(RequestEvent{
		RequestID: requestID,
		Scope:     c.scope.Name,
		Method:    method,
		Path:      path,
		Status:    status,
		Duration:  time.Since(start),
		Replayed:  replayed,
	})
}
