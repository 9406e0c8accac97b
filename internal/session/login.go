// Package session seeds and tears down stored sessions.
//
// FILES:
//   - login.go:   password login and logout against the auth endpoints
//   - browser.go: backend-push browser login over WebSocket
//
// Login flows talk to the backend over a bare HTTP client on purpose: a 401
// here means bad credentials, not an expired session, so the refresh
// coordinator must never see it.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/nexerp/ops-console/internal/apiclient"
	"github.com/nexerp/ops-console/internal/config"
	"github.com/nexerp/ops-console/internal/credstore"
	"github.com/nexerp/ops-console/internal/utils"
)

// LoginResponse is the wire shape of POST /auth/login. The platform surface
// resolves its fixed administrative tenant server-side and returns it here.
type LoginResponse struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	TenantID        string `json:"tenant_id"`
	TenantSubdomain string `json:"tenant_subdomain"`
}

// Service runs login and logout for one scope.
type Service struct {
	baseURL    string
	scope      apiclient.Scope
	store      credstore.Store
	terminator *apiclient.Terminator
	httpClient *http.Client
}

// NewService builds a login service bound to one client's store and
// terminator.
func NewService(baseURL string, scope apiclient.Scope, store credstore.Store, terminator *apiclient.Terminator) *Service {
	return &Service{
		baseURL:    baseURL,
		scope:      scope,
		store:      store,
		terminator: terminator,
		httpClient: &http.Client{Timeout: config.DefaultRequestTimeout},
	}
}

// ForClient builds a login service for an existing api client.
func ForClient(c *apiclient.Client, scope apiclient.Scope) *Service {
	return NewService(c.BaseURL(), scope, c.Store(), c.Terminator())
}

// Login authenticates with email and password, seeds the credential store and
// re-arms the terminator. subdomain routes the login to a tenant; leave it
// empty for the platform surface.
func (s *Service) Login(ctx context.Context, email, password, subdomain string) (credstore.Credentials, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return credstore.Credentials{}, fmt.Errorf("encoding login request: %w", err)
	}
	if subdomain != "" {
		payload, err = sjson.SetBytes(payload, "tenant_subdomain", subdomain)
		if err != nil {
			return credstore.Credentials{}, fmt.Errorf("encoding tenant context: %w", err)
		}
	}

	body, err := s.post(ctx, "/auth/login", payload)
	if err != nil {
		return credstore.Credentials{}, err
	}

	var resp LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return credstore.Credentials{}, fmt.Errorf("parsing login response: %w", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return credstore.Credentials{}, fmt.Errorf("login response missing token pair")
	}

	creds := credstore.Credentials{
		AccessToken:     resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		TenantID:        resp.TenantID,
		TenantSubdomain: resp.TenantSubdomain,
	}
	s.store.Set(creds)
	s.terminator.Arm()

	log.Info().
		Str("scope", s.scope.Name).
		Str("tenant", creds.TenantID).
		Str("token", utils.MaskKey(creds.AccessToken)).
		Msg("logged in")
	return creds, nil
}

// Logout revokes the refresh token server-side (best effort; the endpoint is
// idempotent) and terminates the local session.
func (s *Service) Logout(ctx context.Context) {
	creds, ok := s.store.Get()
	if ok && creds.RefreshToken != "" {
		payload, err := json.Marshal(map[string]string{"refresh_token": creds.RefreshToken})
		if err == nil {
			if _, err := s.post(ctx, "/auth/logout", payload); err != nil {
				log.Debug().Err(err).Str("scope", s.scope.Name).Msg("server-side logout failed, clearing locally anyway")
			}
		}
	}
	s.terminator.Terminate(creds)
}

func (s *Service) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%s: %s", path, msg)
	}
	return body, nil
}

// WithTimeout overrides the login HTTP timeout. Mostly for tests.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.httpClient.Timeout = d
	return s
}
