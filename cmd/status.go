package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nexerp/ops-console/internal/config"
	"github.com/nexerp/ops-console/internal/credstore"
	"github.com/nexerp/ops-console/internal/utils"
)

func runStatusCommand(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	platform := fs.Bool("platform", false, "inspect the platform-admin session")
	_ = fs.Parse(args)

	scope := scopeFor(*platform)
	store := credstore.NewFileStore(cfg.Auth.CredentialsDir, scope.Namespace)

	creds, ok := store.Get()
	if !ok {
		fmt.Printf("No %s session. Run `ops-console login` first.\n", scope.Name)
		return
	}

	fmt.Printf("Scope:   %s\n", scope.Name)
	if creds.TenantSubdomain != "" {
		fmt.Printf("Tenant:  %s (%s)\n", creds.TenantSubdomain, creds.TenantID)
	} else if creds.TenantID != "" {
		fmt.Printf("Tenant:  %s\n", creds.TenantID)
	}
	fmt.Printf("Token:   %s\n", utils.MaskKey(creds.AccessToken))

	// Display-only peek at the expiry claim. The client itself treats tokens
	// as opaque and reacts to the backend's 401 instead.
	if exp, ok := tokenExpiry(creds.AccessToken); ok {
		remaining := time.Until(exp).Round(time.Second)
		if remaining > 0 {
			fmt.Printf("Expires: %s (in %s)\n", exp.Local().Format(time.RFC1123), remaining)
		} else {
			fmt.Printf("Expires: %s (expired; next call will refresh)\n", exp.Local().Format(time.RFC1123))
		}
	}
}

func tokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
