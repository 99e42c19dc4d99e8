package clamd

import "errors"

// Configuration errors returned (wrapped in a validation error) by NewClient.
var (
	// ErrInvalidHost is returned when the daemon host is empty.
	ErrInvalidHost = errors.New("invalid host: must not be empty")

	// ErrInvalidPort is returned when the port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidConnectionTimeout is returned when the connection timeout is not positive.
	ErrInvalidConnectionTimeout = errors.New("invalid connection timeout: must be positive")

	// ErrInvalidScanTimeout is returned when the scan timeout is not positive.
	ErrInvalidScanTimeout = errors.New("invalid scan timeout: must be positive")

	// ErrInvalidWorkerPoolSize is returned when the worker pool size is below 1.
	ErrInvalidWorkerPoolSize = errors.New("invalid worker pool size: must be at least 1")

	// ErrInvalidShutdownGrace is returned when the shutdown grace period is negative.
	ErrInvalidShutdownGrace = errors.New("invalid shutdown grace: must be non-negative")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// Lifecycle errors.
var (
	// ErrClientClosed is the cause attached to async work rejected or
	// cancelled because the client was shut down.
	ErrClientClosed = errors.New("clamd client is closed")

	// ErrForcedShutdown is returned by Close when pool work did not drain
	// within the grace period and had to be terminated.
	ErrForcedShutdown = errors.New("worker pool did not drain within grace period")
)
