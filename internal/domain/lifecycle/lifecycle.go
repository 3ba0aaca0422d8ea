// Package lifecycle holds shared limits for startup and shutdown hooks.
package lifecycle

import "time"

// DefaultTimeout bounds each start or stop hook (pinging the database, draining the HTTP server).
const DefaultTimeout = 10 * time.Second
