package server

import "time"

const (
	// ShutdownTimeout is how long Stop waits for in-flight requests and
	// LSP sessions to finish
	ShutdownTimeout = 10 * time.Second

	// ClientVersionHeader carries the compose client's semantic version
	ClientVersionHeader = "X-Client-Version"

	// RequestIDHeader is echoed on every response
	RequestIDHeader = "X-Request-ID"

	// maxRequestBodyBytes bounds JSON request bodies
	maxRequestBodyBytes = 1 << 20
)

// ServerState represents the server lifecycle state
type ServerState int

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)
