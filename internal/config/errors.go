package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrInvalidHost is returned when the daemon host is empty.
	ErrInvalidHost = errors.New("invalid host: must not be empty")

	// ErrInvalidPort is returned when the daemon port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidTimeout is returned when a timeout is negative.
	// Zero selects the default for the scan mode.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidWorkerPoolSize is returned when the worker pool size is not positive.
	ErrInvalidWorkerPoolSize = errors.New("invalid worker pool size: must be positive")

	// ErrInvalidShutdownGrace is returned when the shutdown grace period is negative.
	ErrInvalidShutdownGrace = errors.New("invalid shutdown grace: must be non-negative")

	// ErrInvalidDeep is returned when the recursion depth is negative.
	ErrInvalidDeep = errors.New("invalid deep: must be non-negative")

	// ErrUnsupportedHashAlgorithm is returned when the digest algorithm is unknown.
	ErrUnsupportedHashAlgorithm = errors.New("unsupported hash algorithm")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProxy is returned by ParseProxy for a malformed proxy.
	ErrInvalidProxy = errors.New("invalid proxy: expected [socks5://][user:password@]host:port")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
