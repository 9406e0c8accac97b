package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// memRecorder collects request events for assertions.
type memRecorder struct {
	mu     sync.Mutex
	events []RequestEvent
}

func (r *memRecorder) Record(e RequestEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *memRecorder) all() []RequestEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RequestEvent(nil), r.events...)
}

func TestClient_PostSendsIdenticalBodyOnReplay(t *testing.T) {
	backend := newFakeBackend("token-next") // stored token stale, refreshed one valid
	defer backend.Close()

	var bodies [][]byte
	var bodiesMu sync.Mutex
	backend.server.Config.Handler.(*http.ServeMux).HandleFunc("/api/notes", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodiesMu.Lock()
		bodies = append(bodies, body)
		bodiesMu.Unlock()

		backend.mu.Lock()
		valid := "Bearer " + backend.validToken
		backend.mu.Unlock()
		if r.Header.Get("Authorization") != valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	store := seededStore()
	client := newTestClient(backend, store, nil)

	err := client.Post(context.Background(), "/api/notes", map[string]string{"text": "qty < 10"}, nil)
	require.NoError(t, err)

	require.Len(t, bodies, 2, "expected original attempt plus one replay")
	assert.Equal(t, bodies[0], bodies[1], "replay must send identical bytes")
	assert.Equal(t, "qty < 10", gjson.GetBytes(bodies[0], "text").String(),
		"body must not be HTML-escaped")
}

func TestClient_RecordsReplayedFlagAndRequestID(t *testing.T) {
	backend := newFakeBackend("token-next") // first attempt 401s, replay succeeds
	defer backend.Close()

	store := seededStore()
	rec := &memRecorder{}
	client := New(backend.server.URL, "example.test", TenantScope, store, WithRecorder(rec))

	err := client.Get(context.Background(), "/api/ping", nil)
	require.NoError(t, err)

	events := rec.all()
	require.Len(t, events, 1, "one logical request records one event")
	e := events[0]
	assert.True(t, e.Replayed)
	assert.Equal(t, http.StatusOK, e.Status)
	assert.Equal(t, "tenant", e.Scope)
	assert.Equal(t, http.MethodGet, e.Method)
	assert.Equal(t, "/api/ping", e.Path)
	assert.NotEmpty(t, e.RequestID)
	assert.Positive(t, e.Duration)
}

func TestClient_RecordsNonReplayedSuccess(t *testing.T) {
	backend := newFakeBackend("token-stale") // stored token already valid
	defer backend.Close()

	store := seededStore()
	rec := &memRecorder{}
	client := New(backend.server.URL, "example.test", TenantScope, store, WithRecorder(rec))

	require.NoError(t, client.Get(context.Background(), "/api/ping", nil))

	events := rec.all()
	require.Len(t, events, 1)
	assert.False(t, events[0].Replayed)
	assert.EqualValues(t, 0, backend.refreshCalls.Load())
}

func TestClient_RequestIDStableAcrossReplay(t *testing.T) {
	backend := newFakeBackend("token-next")
	defer backend.Close()

	var ids []string
	var idsMu sync.Mutex
	backend.server.Config.Handler.(*http.ServeMux).HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		idsMu.Lock()
		ids = append(ids, r.Header.Get(HeaderRequestID))
		idsMu.Unlock()

		backend.mu.Lock()
		valid := "Bearer " + backend.validToken
		backend.mu.Unlock()
		if r.Header.Get("Authorization") != valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	store := seededStore()
	client := newTestClient(backend, store, nil)
	require.NoError(t, client.Get(context.Background(), "/api/echo", nil))

	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1], "both attempts of one logical request share a request id")
	assert.NotEmpty(t, ids[0])
}

func TestClient_DecodesResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"po-1"}}`))
	}))
	defer server.Close()

	store := seededStore()
	client := New(server.URL, "example.test", TenantScope, store)

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, client.Get(context.Background(), "/api/thing", &out))
	assert.True(t, out.Success)
	assert.Equal(t, "po-1", out.Data.ID)
}

func TestClient_TrimsTrailingSlashFromBaseURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := seededStore()
	client := New(server.URL+"/", "example.test", TenantScope, store)

	require.NoError(t, client.Get(context.Background(), "/api/ping", nil))
	assert.Equal(t, "/api/ping", gotPath)
}
