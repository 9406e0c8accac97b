package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/coder/websocket"
)

// BrowserLogin receives credentials pushed by the backend over a WebSocket
// once the user finishes logging in through their browser. The outbound
// connection means it works from VMs and remote shells where a localhost
// callback server would not.
type BrowserLogin struct {
	backendURL string
	state      string // CSRF token
	conn       *websocket.Conn
	mu         sync.Mutex
}

// wsMessage is a message received over the login channel.
type wsMessage struct {
	Type            string `json:"type"`
	AuthorizeURL    string `json:"authorize_url,omitempty"`
	AccessToken     string `json:"access_token,omitempty"`
	RefreshToken    string `json:"refresh_token,omitempty"`
	TenantID        string `json:"tenant_id,omitempty"`
	TenantSubdomain string `json:"tenant_subdomain,omitempty"`
	Error           string `json:"error,omitempty"`
}

// NewBrowserLogin creates a browser login flow against the given backend base
// URL.
func NewBrowserLogin(backendURL string) (*BrowserLogin, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return nil, fmt.Errorf("generating state token: %w", err)
	}
	return &BrowserLogin{
		backendURL: backendURL,
		state:      hex.EncodeToString(stateBytes),
	}, nil
}

// Connect opens the WebSocket and waits for the session message carrying the
// URL the user must open in a browser.
func (b *BrowserLogin) Connect(ctx context.Context) (authorizeURL string, err error) {
	wsURL := toWebSocketURL(b.backendURL) + "/ws/auth?state=" + b.state

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("connecting to login channel: %w", err)
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	var msg wsMessage
	if err := b.readMessage(ctx, &msg); err != nil {
		_ = b.Close()
		return "", fmt.Errorf("reading session message: %w", err)
	}
	if msg.Type == "error" {
		_ = b.Close()
		return "", fmt.Errorf("login channel error: %s", msg.Error)
	}
	if msg.Type != "session" || msg.AuthorizeURL == "" {
		_ = b.Close()
		return "", fmt.Errorf("unexpected message type: %s (expected session with authorize_url)", msg.Type)
	}
	return msg.AuthorizeURL, nil
}

// Wait blocks until the backend pushes the credential pair. Must be called
// after Connect; the context controls the overall timeout.
func (b *BrowserLogin) Wait(ctx context.Context) (LoginResponse, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return LoginResponse{}, fmt.Errorf("not connected (call Connect first)")
	}

	var msg wsMessage
	if err := b.readMessage(ctx, &msg); err != nil {
		return LoginResponse{}, fmt.Errorf("waiting for credentials: %w", err)
	}

	switch msg.Type {
	case "credentials":
		if msg.AccessToken == "" || msg.RefreshToken == "" {
			return LoginResponse{}, fmt.Errorf("received incomplete credentials from server")
		}
		return LoginResponse{
			AccessToken:     msg.AccessToken,
			RefreshToken:    msg.RefreshToken,
			TenantID:        msg.TenantID,
			TenantSubdomain: msg.TenantSubdomain,
		}, nil
	case "error":
		return LoginResponse{}, fmt.Errorf("authorization error: %s", msg.Error)
	default:
		return LoginResponse{}, fmt.Errorf("unexpected message type: %s (expected credentials)", msg.Type)
	}
}

// Close closes the WebSocket connection.
func (b *BrowserLogin) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		err := b.conn.Close(websocket.StatusNormalClosure, "done")
		b.conn = nil
		return err
	}
	return nil
}

func (b *BrowserLogin) readMessage(ctx context.Context, msg *wsMessage) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, msg)
}

// toWebSocketURL converts an HTTP(S) URL to a WS(S) URL.
func toWebSocketURL(httpURL string) string {
	if strings.HasPrefix(httpURL, "https://") {
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	}
	if strings.HasPrefix(httpURL, "http://") {
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	}
	// Already a ws:// or wss:// URL
	return httpURL
}
