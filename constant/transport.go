package constant

import "time"

// Transport defaults
const (
	// DefaultListenAddr is the default TCP listening endpoint
	DefaultListenAddr = ":6789"

	// SendQueueSize is the per-endpoint outbound frame buffer
	// A full queue marks the endpoint as gone
	SendQueueSize = 256

	// MaxFrameSize limits inbound frames to prevent memory exhaustion
	MaxFrameSize = 4096

	// PingInterval is how often the server pings each endpoint
	PingInterval = 25 * time.Second

	// PongTimeout is the read deadline, refreshed on every pong
	PongTimeout = 60 * time.Second

	// WriteTimeout bounds a single frame write to a slow endpoint
	WriteTimeout = 10 * time.Second

	// ShutdownTimeout bounds graceful HTTP server shutdown
	ShutdownTimeout = 5 * time.Second
)
