package clamd

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Default connection parameters for a standalone client.
const (
	// DefaultHost is the daemon host.
	DefaultHost = "localhost"

	// DefaultPort is clamd's standard TCP port.
	DefaultPort = 3310

	// DefaultConnectionTimeout bounds connection establishment.
	DefaultConnectionTimeout = 5 * time.Second

	// DefaultScanTimeout bounds each read or write once connected.
	DefaultScanTimeout = 30 * time.Second

	// DefaultWorkerPoolSize is the number of concurrent async scans.
	DefaultWorkerPoolSize = 4

	// DefaultShutdownGrace is how long Close waits for async work to drain.
	DefaultShutdownGrace = 5 * time.Second
)

// Config holds the connection parameters of a Client.
// NewClient validates it once and keeps a private copy.
type Config struct {
	// Host is the daemon host name or IP address.
	Host string

	// Port is the daemon TCP port.
	Port int

	// ConnectionTimeout bounds TCP connection establishment.
	ConnectionTimeout time.Duration

	// ScanTimeout bounds every read and write on an established connection,
	// including the wait for the verdict after the stream is sent.
	ScanTimeout time.Duration

	// WorkerPoolSize is the number of async scans that may run at once.
	WorkerPoolSize int

	// ShutdownGrace is how long Close waits for async work before
	// terminating it. Zero terminates immediately.
	ShutdownGrace time.Duration

	// ProxyAddress, when set, routes connections through a SOCKS5 proxy
	// at host:port.
	ProxyAddress string

	// ProxyUser and ProxyPassword authenticate against the SOCKS5 proxy.
	ProxyUser     string
	ProxyPassword string
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		ConnectionTimeout: DefaultConnectionTimeout,
		ScanTimeout:       DefaultScanTimeout,
		WorkerPoolSize:    DefaultWorkerPoolSize,
		ShutdownGrace:     DefaultShutdownGrace,
	}
}

// Address returns the daemon address in host:port form.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate returns the first configuration error found, or nil.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrInvalidHost
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.ConnectionTimeout <= 0 {
		return ErrInvalidConnectionTimeout
	}
	if c.ScanTimeout <= 0 {
		return ErrInvalidScanTimeout
	}
	if c.WorkerPoolSize < 1 {
		return ErrInvalidWorkerPoolSize
	}
	if c.ShutdownGrace < 0 {
		return ErrInvalidShutdownGrace
	}
	if c.ProxyAddress != "" {
		host, port, err := net.SplitHostPort(c.ProxyAddress)
		if err != nil || host == "" || port == "" {
			return ErrInvalidProxyAddress
		}
	}
	return nil
}
