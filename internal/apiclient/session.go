package apiclient

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/nexerp/ops-console/internal/credstore"
)

// Terminator ends a session when refresh is not recoverable: it clears the
// credential store and surfaces a login location through the configured
// callback. Concurrent triggers are safe - the store clear is harmless to
// repeat and the callback fires at most once per session.
type Terminator struct {
	store       credstore.Store
	loginHost   string
	onTerminate func(loginURL string)
	done        atomic.Bool
}

// NewTerminator builds a terminator for one scope's store. onTerminate may be
// nil; loginHost is the host pattern for tenant-aware login locations.
func NewTerminator(store credstore.Store, loginHost string, onTerminate func(loginURL string)) *Terminator {
	return &Terminator{
		store:       store,
		loginHost:   loginHost,
		onTerminate: onTerminate,
	}
}

// Terminate clears the store and notifies the callback once. The credentials
// argument carries the tenant context captured before the clear, so the login
// location can still be tenant-aware.
func (t *Terminator) Terminate(creds credstore.Credentials) {
	t.store.Clear()
	if !t.done.CompareAndSwap(false, true) {
		return
	}
	loginURL := t.LoginURL(creds.TenantSubdomain)
	log.Info().Str("login_url", loginURL).Msg("session terminated")
	if t.onTerminate != nil {
		t.onTerminate(loginURL)
	}
}

// Arm re-enables termination. Called after a successful login seeds the
// store, so the next terminal failure notifies again.
func (t *Terminator) Arm() {
	t.done.Store(false)
}

// LoginURL returns the tenant-specific login location when a subdomain is
// known, otherwise the generic one.
func (t *Terminator) LoginURL(subdomain string) string {
	if subdomain != "" {
		return "https://" + subdomain + "." + t.loginHost + "/login"
	}
	return "https://" + t.loginHost + "/login"
}
