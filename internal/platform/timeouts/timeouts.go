// Package timeouts defines shared timeout constants used across commands.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// SessionLookup caps a single session store read during request resolution.
const SessionLookup = 2 * time.Second

// StatsQuery caps dashboard aggregate queries.
const StatsQuery = 3 * time.Second
