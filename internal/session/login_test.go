package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/nexerp/ops-console/internal/apiclient"
	"github.com/nexerp/ops-console/internal/credstore"
)

func TestLogin_SeedsStoreAndArmsTerminator(t *testing.T) {
	var loginBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		loginBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(LoginResponse{
			AccessToken:     "tok-1",
			RefreshToken:    "ref-1",
			TenantID:        "t-100",
			TenantSubdomain: "acme",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := credstore.NewMemoryStore()
	var terminations atomic.Int32
	terminator := apiclient.NewTerminator(store, "nexerp.app", func(string) { terminations.Add(1) })

	// Exhaust the latch so Login has to re-arm it.
	terminator.Terminate(credstore.Credentials{})
	require.EqualValues(t, 1, terminations.Load())

	svc := NewService(server.URL, apiclient.TenantScope, store, terminator)
	creds, err := svc.Login(context.Background(), "ops@acme.test", "hunter2", "acme")
	require.NoError(t, err)

	assert.Equal(t, "tok-1", creds.AccessToken)
	assert.Equal(t, "ref-1", creds.RefreshToken)
	assert.Equal(t, "acme", creds.TenantSubdomain)

	stored, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, creds, stored)

	assert.Equal(t, "ops@acme.test", gjson.GetBytes(loginBody, "email").String())
	assert.Equal(t, "acme", gjson.GetBytes(loginBody, "tenant_subdomain").String())
	assert.Equal(t, "hunter2", gjson.GetBytes(loginBody, "password").String())

	// The re-armed terminator notifies again on the next terminal failure.
	terminator.Terminate(creds)
	assert.EqualValues(t, 2, terminations.Load())
}

func TestLogin_PlatformOmitsTenantContext(t *testing.T) {
	var loginBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(LoginResponse{
			AccessToken:  "tok-admin",
			RefreshToken: "ref-admin",
			TenantID:     "t-platform",
		})
	}))
	defer server.Close()

	store := credstore.NewMemoryStore()
	terminator := apiclient.NewTerminator(store, "nexerp.app", nil)
	svc := NewService(server.URL, apiclient.PlatformScope, store, terminator)

	creds, err := svc.Login(context.Background(), "root@nexerp.app", "hunter2", "")
	require.NoError(t, err)

	assert.False(t, gjson.GetBytes(loginBody, "tenant_subdomain").Exists())
	assert.Equal(t, "t-platform", creds.TenantID)
}

func TestLogin_BadCredentialsSurfaceMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid email or password"}`))
	}))
	defer server.Close()

	store := credstore.NewMemoryStore()
	terminator := apiclient.NewTerminator(store, "nexerp.app", nil)
	svc := NewService(server.URL, apiclient.TenantScope, store, terminator)

	_, err := svc.Login(context.Background(), "ops@acme.test", "wrong", "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	// A failed login is not a session expiry and must not touch the store.
	_, ok := store.Get()
	assert.False(t, ok)
	assert.False(t, apiclient.IsSessionExpired(err))
}

func TestLogin_MissingTokenPairRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(LoginResponse{AccessToken: "tok-only"})
	}))
	defer server.Close()

	store := credstore.NewMemoryStore()
	terminator := apiclient.NewTerminator(store, "nexerp.app", nil)
	svc := NewService(server.URL, apiclient.TenantScope, store, terminator)

	_, err := svc.Login(context.Background(), "ops@acme.test", "hunter2", "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing token pair")

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestLogout_RevokesAndClears(t *testing.T) {
	var logoutBody []byte
	var logoutCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutCalls.Add(1)
		logoutBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := credstore.NewMemoryStore()
	store.Set(credstore.Credentials{AccessToken: "tok-1", RefreshToken: "ref-1", TenantSubdomain: "acme"})

	var terminations atomic.Int32
	terminator := apiclient.NewTerminator(store, "nexerp.app", func(string) { terminations.Add(1) })
	svc := NewService(server.URL, apiclient.TenantScope, store, terminator)

	svc.Logout(context.Background())

	assert.EqualValues(t, 1, logoutCalls.Load())
	assert.Equal(t, "ref-1", gjson.GetBytes(logoutBody, "refresh_token").String())
	assert.EqualValues(t, 1, terminations.Load())

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestLogout_ServerFailureStillClearsLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := credstore.NewMemoryStore()
	store.Set(credstore.Credentials{AccessToken: "tok-1", RefreshToken: "ref-1"})
	terminator := apiclient.NewTerminator(store, "nexerp.app", nil)
	svc := NewService(server.URL, apiclient.TenantScope, store, terminator)

	svc.Logout(context.Background())

	_, ok := store.Get()
	assert.False(t, ok, "local session must end even when revocation fails")
}

func TestLogout_NoSessionIsANoOp(t *testing.T) {
	// No server at all: without a refresh token there is nothing to revoke.
	store := credstore.NewMemoryStore()
	terminator := apiclient.NewTerminator(store, "nexerp.app", nil)
	svc := NewService("http://127.0.0.1:1", apiclient.TenantScope, store, terminator)

	assert.NotPanics(t, func() {
		svc.Logout(context.Background())
	})
}
