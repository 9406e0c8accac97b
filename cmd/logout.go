package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/nexerp/ops-console/internal/config"
	"github.com/nexerp/ops-console/internal/session"
)

func runLogoutCommand(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	platform := fs.Bool("platform", false, "log out of the platform-admin surface")
	_ = fs.Parse(args)

	client, cleanup := buildClient(cfg, *platform)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc := session.ForClient(client, scopeFor(*platform))
	svc.Logout(ctx)
	fmt.Println("Logged out.")
}
