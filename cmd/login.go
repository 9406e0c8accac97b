package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/nexerp/ops-console/internal/apiclient"
	"github.com/nexerp/ops-console/internal/config"
	"github.com/nexerp/ops-console/internal/credstore"
	"github.com/nexerp/ops-console/internal/session"
)

func runLoginCommand(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	platform := fs.Bool("platform", false, "log in to the platform-admin surface")
	sso := fs.Bool("sso", false, "log in through the browser instead of a password prompt")
	tenant := fs.String("tenant", "", "tenant subdomain (tenant surface only)")
	email := fs.String("email", "", "account email")
	_ = fs.Parse(args)

	client, cleanup := buildClient(cfg, *platform)
	defer cleanup()

	ctx := context.Background()

	var (
		creds credstore.Credentials
		err   error
	)
	if *sso {
		creds, err = browserLogin(ctx, client)
	} else {
		svc := session.ForClient(client, scopeFor(*platform))
		creds, err = passwordLogin(ctx, svc, *platform, *tenant, *email)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}

	if creds.TenantSubdomain != "" {
		fmt.Printf("Logged in to tenant %s (%s).\n", creds.TenantSubdomain, creds.TenantID)
	} else {
		fmt.Printf("Logged in (tenant %s).\n", creds.TenantID)
	}
}

func passwordLogin(ctx context.Context, svc *session.Service, platform bool, tenant, email string) (credstore.Credentials, error) {
	reader := bufio.NewReader(os.Stdin)

	if !platform && tenant == "" {
		fmt.Print("Tenant subdomain: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return credstore.Credentials{}, fmt.Errorf("reading tenant: %w", err)
		}
		tenant = strings.TrimSpace(line)
	}
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return credstore.Credentials{}, fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return credstore.Credentials{}, fmt.Errorf("reading password: %w", err)
	}

	if platform {
		// The platform surface resolves its administrative tenant at login.
		return svc.Login(ctx, email, string(password), "")
	}
	return svc.Login(ctx, email, string(password), tenant)
}

func browserLogin(ctx context.Context, client *apiclient.Client) (credstore.Credentials, error) {
	flow, err := session.NewBrowserLogin(client.BaseURL())
	if err != nil {
		return credstore.Credentials{}, err
	}
	defer flow.Close()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	authorizeURL, err := flow.Connect(connectCtx)
	if err != nil {
		return credstore.Credentials{}, err
	}

	fmt.Printf("Open this URL in your browser to finish logging in:\n\n  %s\n\nWaiting...\n", authorizeURL)

	waitCtx, cancelWait := context.WithTimeout(ctx, 5*time.Minute)
	defer cancelWait()
	resp, err := flow.Wait(waitCtx)
	if err != nil {
		return credstore.Credentials{}, err
	}

	creds := credstore.Credentials{
		AccessToken:     resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		TenantID:        resp.TenantID,
		TenantSubdomain: resp.TenantSubdomain,
	}
	client.Store().Set(creds)
	client.Terminator().Arm()
	return creds, nil
}
