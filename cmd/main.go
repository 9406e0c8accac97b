// Command ops-console is a terminal client for the nexerp operations backend.
//
// FILES:
//   - main.go:    subcommand dispatch and shared wiring
//   - login.go:   password and browser login
//   - logout.go:  session teardown
//   - status.go:  session inspection
//   - orders.go:  purchase order listing
//   - returns.go: sales return listing
//   - audit.go:   local request audit trail
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nexerp/ops-console/internal/apiclient"
	"github.com/nexerp/ops-console/internal/audit"
	"github.com/nexerp/ops-console/internal/config"
	"github.com/nexerp/ops-console/internal/credstore"
)

func main() {
	_ = godotenv.Load()
	initLogging()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	switch os.Args[1] {
	case "login":
		runLoginCommand(cfg, os.Args[2:])
	case "logout":
		runLogoutCommand(cfg, os.Args[2:])
	case "status":
		runStatusCommand(cfg, os.Args[2:])
	case "orders":
		runOrdersCommand(cfg, os.Args[2:])
	case "returns":
		runReturnsCommand(cfg, os.Args[2:])
	case "audit":
		runAuditCommand(cfg, os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func initLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	level := zerolog.InfoLevel
	if v := os.Getenv("OPSCONSOLE_LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
}

func usage() {
	fmt.Fprint(os.Stderr, `ops-console - terminal client for the nexerp operations backend

Usage:
  ops-console login [--platform] [--sso] [--tenant SUBDOMAIN] [--email EMAIL]
  ops-console logout [--platform]
  ops-console status [--platform]
  ops-console orders [--status STATUS] [--search TEXT] [--page N]
  ops-console returns [--status STATUS] [--page N]
  ops-console audit [-n N]
  ops-console help

Environment:
  OPSCONSOLE_API_URL, OPSCONSOLE_PLATFORM_API_URL, OPSCONSOLE_LOGIN_HOST,
  OPSCONSOLE_CREDENTIALS_DIR, OPSCONSOLE_AUDIT_DB, OPSCONSOLE_AUDIT_DISABLED,
  OPSCONSOLE_LOG_LEVEL
`)
}

// scopeFor maps the --platform flag to a scope.
func scopeFor(platform bool) apiclient.Scope {
	if platform {
		return apiclient.PlatformScope
	}
	return apiclient.TenantScope
}

// buildClient wires store, audit recorder and terminate notice for one scope.
// The returned cleanup closes the audit database.
func buildClient(cfg *config.Config, platform bool) (*apiclient.Client, func()) {
	scope := scopeFor(platform)
	store := credstore.NewFileStore(cfg.Auth.CredentialsDir, scope.Namespace)

	opts := []apiclient.Option{
		apiclient.WithTerminateFunc(func(loginURL string) {
			fmt.Fprintf(os.Stderr, "Session expired. Log in again at %s or run `ops-console login`.\n", loginURL)
		}),
	}

	cleanup := func() {}
	if cfg.Audit.Enabled {
		recorder, err := audit.Open(cfg.Audit.DBPath)
		if err != nil {
			log.Warn().Err(err).Msg("audit trail disabled")
		} else {
			opts = append(opts, apiclient.WithRecorder(recorder))
			cleanup = func() { _ = recorder.Close() }
		}
	}

	var client *apiclient.Client
	if platform {
		client = apiclient.NewPlatformClient(cfg, store, opts...)
	} else {
		client = apiclient.NewTenantClient(cfg, store, opts...)
	}
	return client, cleanup
}
