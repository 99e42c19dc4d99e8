package clamd

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Host != "localhost" {
		t.Errorf("expected host localhost, got %s", cfg.Host)
	}
	if cfg.Port != 3310 {
		t.Errorf("expected port 3310, got %d", cfg.Port)
	}
	if cfg.ConnectionTimeout != 5*time.Second {
		t.Errorf("expected connection timeout 5s, got %v", cfg.ConnectionTimeout)
	}
	if cfg.ScanTimeout != 30*time.Second {
		t.Errorf("expected scan timeout 30s, got %v", cfg.ScanTimeout)
	}
	if cfg.WorkerPoolSize != 4 {
		t.Errorf("expected pool size 4, got %d", cfg.WorkerPoolSize)
	}
	if cfg.ProxyAddress != "" {
		t.Errorf("expected no proxy, got %s", cfg.ProxyAddress)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestConfigAddress(t *testing.T) {
	t.Parallel()

	t.Run("host and port are joined", func(t *testing.T) {
		t.Parallel()

		cfg := Config{Host: "clamav.internal", Port: 3310}
		if got := cfg.Address(); got != "clamav.internal:3310" {
			t.Errorf("expected clamav.internal:3310, got %s", got)
		}
	})

	t.Run("IPv6 host is bracketed", func(t *testing.T) {
		t.Parallel()

		cfg := Config{Host: "::1", Port: 3310}
		if got := cfg.Address(); got != "[::1]:3310" {
			t.Errorf("expected [::1]:3310, got %s", got)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty host", func(c *Config) { c.Host = "" }, ErrInvalidHost},
		{"blank host", func(c *Config) { c.Host = "   " }, ErrInvalidHost},
		{"port zero", func(c *Config) { c.Port = 0 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Port = 65536 }, ErrInvalidPort},
		{"zero connection timeout", func(c *Config) { c.ConnectionTimeout = 0 }, ErrInvalidConnectionTimeout},
		{"negative scan timeout", func(c *Config) { c.ScanTimeout = -time.Second }, ErrInvalidScanTimeout},
		{"zero workers", func(c *Config) { c.WorkerPoolSize = 0 }, ErrInvalidWorkerPoolSize},
		{"negative grace", func(c *Config) { c.ShutdownGrace = -1 }, ErrInvalidShutdownGrace},
		{"proxy without port", func(c *Config) { c.ProxyAddress = "proxy.local" }, ErrInvalidProxyAddress},
		{"proxy without host", func(c *Config) { c.ProxyAddress = ":1080" }, ErrInvalidProxyAddress},
		{"zero grace is allowed", func(c *Config) { c.ShutdownGrace = 0 }, nil},
		{"max port is allowed", func(c *Config) { c.Port = 65535 }, nil},
		{"proxy host:port is allowed", func(c *Config) { c.ProxyAddress = "127.0.0.1:1080" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewDialer(t *testing.T) {
	t.Parallel()

	t.Run("direct dialer without proxy", func(t *testing.T) {
		t.Parallel()

		d, err := newDialer(DefaultConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d == nil {
			t.Fatal("expected a dialer")
		}
	})

	t.Run("SOCKS5 dialer with proxy credentials", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.ProxyAddress = "127.0.0.1:1080"
		cfg.ProxyUser = "scanner"
		cfg.ProxyPassword = "secret"
		d, err := newDialer(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d == nil {
			t.Fatal("expected a dialer")
		}
	})
}
