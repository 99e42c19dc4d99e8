package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/clamscan/internal/clamd"
	"github.com/nao1215/clamscan/internal/digest"
	"github.com/nao1215/clamscan/internal/dirscan"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "clamscan"

	// ConfigFileName is the configuration file name inside XDGConfigDir.
	ConfigFileName = "config.yaml"
)

// Config holds every option of the clamscan command.
// It is populated from defaults, then the configuration file, then flags.
type Config struct {
	// Host is the clamd host name or IP address.
	Host string

	// Port is the clamd TCP port.
	Port int

	// ConnectionTimeout bounds connection establishment.
	// Zero selects the default of the scan mode: 5s for single scans,
	// 10s for directory scans.
	ConnectionTimeout time.Duration

	// ScanTimeout bounds every read and write once connected.
	// Zero selects the default of the scan mode: 30s for single scans,
	// 1m for directory scans.
	ScanTimeout time.Duration

	// WorkerPoolSize is the number of concurrent async scans.
	WorkerPoolSize int

	// ShutdownGrace is how long the client waits for async scans on close.
	ShutdownGrace time.Duration

	// ProxyAddress routes connections through a SOCKS5 proxy when set.
	ProxyAddress string

	// ProxyUser and ProxyPassword authenticate against the proxy.
	ProxyUser     string
	ProxyPassword string

	// Directory is the directory scanned by the dir command.
	Directory string

	// Deep is the accepted recursion depth for directory scans.
	Deep int

	// HashAlgorithm names the digest attached to directory scan records.
	HashAlgorithm string

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Host:           clamd.DefaultHost,
		Port:           clamd.DefaultPort,
		WorkerPoolSize: clamd.DefaultWorkerPoolSize,
		ShutdownGrace:  clamd.DefaultShutdownGrace,
		Deep:           dirscan.DefaultDeep,
		HashAlgorithm:  digest.DefaultAlgorithm,
	}
}

// XDGConfigDir returns the XDG config directory for clamscan.
// On Linux: ~/.config/clamscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultConfigPath returns the path init writes to and FindConfigFile
// falls back to.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigDir(), ConfigFileName)
}

// ApplyFile overlays the values set in f onto c.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.Host != "" {
		c.Host = f.Host
	}
	if f.Port != 0 {
		c.Port = f.Port
	}
	if f.ConnectionTimeout != 0 {
		c.ConnectionTimeout = f.ConnectionTimeout
	}
	if f.ScanTimeout != 0 {
		c.ScanTimeout = f.ScanTimeout
	}
	if f.WorkerPoolSize != 0 {
		c.WorkerPoolSize = f.WorkerPoolSize
	}
	if f.ShutdownGrace != nil {
		c.ShutdownGrace = *f.ShutdownGrace
	}
	if f.Proxy.Address != "" {
		c.ProxyAddress = f.Proxy.Address
	}
	if f.Proxy.User != "" {
		c.ProxyUser = f.Proxy.User
	}
	if f.Proxy.Password != "" {
		c.ProxyPassword = f.Proxy.Password
	}
	if f.Directory != "" {
		c.Directory = f.Directory
	}
	if f.Deep != nil {
		c.Deep = *f.Deep
	}
	if f.HashAlgorithm != "" {
		c.HashAlgorithm = f.HashAlgorithm
	}
}

// Validate returns the first invalid option found, or nil.
// Proxy address syntax is checked by clamd.NewClient.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrInvalidHost
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.ConnectionTimeout < 0 || c.ScanTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.WorkerPoolSize <= 0 {
		return ErrInvalidWorkerPoolSize
	}
	if c.ShutdownGrace < 0 {
		return ErrInvalidShutdownGrace
	}
	if c.Deep < 0 {
		return ErrInvalidDeep
	}
	if _, err := digest.Canonical(c.HashAlgorithm); err != nil {
		return fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedHashAlgorithm, c.HashAlgorithm, strings.Join(digest.Supported(), ", "))
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// ClientConfig returns the clamd configuration for single scans.
func (c *Config) ClientConfig() clamd.Config {
	cfg := clamd.DefaultConfig()
	c.applyClient(&cfg)
	return cfg
}

// DirscanConfig returns the directory scan configuration. Unset timeouts
// take the directory-mode defaults.
func (c *Config) DirscanConfig() dirscan.Config {
	cfg := dirscan.DefaultConfig(c.Directory)
	cfg.Deep = c.Deep
	cfg.HashAlgorithm = c.HashAlgorithm
	c.applyClient(&cfg.Client)
	return cfg
}

func (c *Config) applyClient(cfg *clamd.Config) {
	cfg.Host = c.Host
	cfg.Port = c.Port
	if c.ConnectionTimeout > 0 {
		cfg.ConnectionTimeout = c.ConnectionTimeout
	}
	if c.ScanTimeout > 0 {
		cfg.ScanTimeout = c.ScanTimeout
	}
	cfg.WorkerPoolSize = c.WorkerPoolSize
	cfg.ShutdownGrace = c.ShutdownGrace
	cfg.ProxyAddress = c.ProxyAddress
	cfg.ProxyUser = c.ProxyUser
	cfg.ProxyPassword = c.ProxyPassword
}
