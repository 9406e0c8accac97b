// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined
// here. This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// BACKEND ENDPOINTS
// =============================================================================

// DefaultTenantBaseURL is the production tenant-scoped API base URL.
const DefaultTenantBaseURL = "https://api.nexerp.app"

// DefaultPlatformBaseURL is the production platform-admin API base URL.
// Platform sessions are isolated from tenant sessions end to end, so the
// admin surface gets its own origin as well.
const DefaultPlatformBaseURL = "https://admin-api.nexerp.app"

// DefaultLoginHost is the host pattern for browser login locations.
// Tenant-aware locations are built as https://<subdomain>.<host>/login.
const DefaultLoginHost = "nexerp.app"

// =============================================================================
// HTTP AND NETWORKING
// =============================================================================

// DefaultRequestTimeout is the upper bound for a single API call.
// Generous because the backend cold-starts on the cheaper plans.
const DefaultRequestTimeout = 30 * time.Second

// DefaultRefreshTimeout bounds the token refresh call. It is longer than the
// request timeout so a refresh triggered by a slow call can still complete.
const DefaultRefreshTimeout = 45 * time.Second

// =============================================================================
// LOCAL STATE
// =============================================================================

// DefaultStateDirName is the directory under $HOME holding credentials,
// config and the audit database.
const DefaultStateDirName = ".ops-console"

// DefaultConfigFileName is the config file looked up inside the state dir.
const DefaultConfigFileName = "config.yaml"

// DefaultAuditDBFileName is the sqlite file for the request audit trail.
const DefaultAuditDBFileName = "audit.db"
