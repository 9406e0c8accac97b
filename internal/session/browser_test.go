package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loginChannelServer fakes the backend's /ws/auth endpoint: it sends a session
// message on connect and then whatever messages the script holds.
func loginChannelServer(t *testing.T, script []wsMessage) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws/auth", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("state"), "client must send a state token")

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "done")

		ctx := r.Context()
		for _, msg := range script {
			data, err := json.Marshal(msg)
			require.NoError(t, err)
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		_, _, _ = conn.Read(ctx)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBrowserLogin_HappyPath(t *testing.T) {
	server := loginChannelServer(t, []wsMessage{
		{Type: "session", AuthorizeURL: "https://acme.nexerp.app/authorize?state=abc"},
		{Type: "credentials", AccessToken: "tok-1", RefreshToken: "ref-1", TenantID: "t-100", TenantSubdomain: "acme"},
	})

	flow, err := NewBrowserLogin(server.URL)
	require.NoError(t, err)
	defer flow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	authorizeURL, err := flow.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://acme.nexerp.app/authorize?state=abc", authorizeURL)

	resp, err := flow.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.AccessToken)
	assert.Equal(t, "ref-1", resp.RefreshToken)
	assert.Equal(t, "acme", resp.TenantSubdomain)
}

func TestBrowserLogin_ServerDeniesSession(t *testing.T) {
	server := loginChannelServer(t, []wsMessage{
		{Type: "error", Error: "too many pending logins"},
	})

	flow, err := NewBrowserLogin(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = flow.Connect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many pending logins")
}

func TestBrowserLogin_AuthorizationError(t *testing.T) {
	server := loginChannelServer(t, []wsMessage{
		{Type: "session", AuthorizeURL: "https://acme.nexerp.app/authorize"},
		{Type: "error", Error: "user declined"},
	})

	flow, err := NewBrowserLogin(server.URL)
	require.NoError(t, err)
	defer flow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = flow.Connect(ctx)
	require.NoError(t, err)

	_, err = flow.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user declined")
}

func TestBrowserLogin_IncompleteCredentialsRejected(t *testing.T) {
	server := loginChannelServer(t, []wsMessage{
		{Type: "session", AuthorizeURL: "https://acme.nexerp.app/authorize"},
		{Type: "credentials", AccessToken: "tok-only"},
	})

	flow, err := NewBrowserLogin(server.URL)
	require.NoError(t, err)
	defer flow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = flow.Connect(ctx)
	require.NoError(t, err)

	_, err = flow.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete credentials")
}

func TestBrowserLogin_WaitBeforeConnect(t *testing.T) {
	flow, err := NewBrowserLogin("http://localhost:0")
	require.NoError(t, err)

	_, err = flow.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestToWebSocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:4000", toWebSocketURL("http://localhost:4000"))
	assert.Equal(t, "wss://api.nexerp.app", toWebSocketURL("https://api.nexerp.app"))
	assert.Equal(t, "wss://api.nexerp.app", toWebSocketURL("wss://api.nexerp.app"))
}
