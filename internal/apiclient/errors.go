package apiclient

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrNoRefreshToken means credential expiry was detected but the store holds
// no refresh token, so recovery is impossible without a new login. No network
// refresh call is made in this case.
var ErrNoRefreshToken = errors.New("no refresh token available")

// SessionExpiredError is the terminal authorization failure: the refresh
// protocol could not recover the session. Every caller queued on the failed
// refresh episode receives the same error.
type SessionExpiredError struct {
	Cause error
}

func (e *SessionExpiredError) Error() string {
	if e.Cause != nil {
		return "session expired: " + e.Cause.Error()
	}
	return "session expired"
}

func (e *SessionExpiredError) Unwrap() error {
	return e.Cause
}

// IsSessionExpired reports whether err is a terminal session failure.
func IsSessionExpired(err error) bool {
	var se *SessionExpiredError
	return errors.As(err, &se)
}

// APIError is a non-2xx response from the backend. The envelope fields are
// extracted best-effort; Body always carries the raw payload.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error: status %d", e.Status)
}

// newAPIError builds an APIError from a response body. The backend envelope
// is `{"success": false, "message": "...", "code": "..."}` but error bodies
// from proxies and load balancers show up here too, so parsing is best-effort.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: body}
	if len(body) == 0 {
		return e
	}
	if v := gjson.GetBytes(body, "message"); v.Exists() {
		e.Message = v.String()
	} else if v := gjson.GetBytes(body, "error"); v.Exists() {
		e.Message = v.String()
	}
	if v := gjson.GetBytes(body, "code"); v.Exists() {
		e.Code = v.String()
	}
	return e
}
