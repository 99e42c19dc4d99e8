package dirscan

import (
	"fmt"
	"time"

	"github.com/nao1215/clamscan/internal/clamd"
	"github.com/nao1215/clamscan/internal/digest"
)

// Directory-mode defaults. Whole files are streamed, so the client gets
// more generous timeouts than a standalone clamd.Client.
const (
	// DefaultDeep is the accepted recursion depth.
	DefaultDeep = 3

	// DefaultConnectionTimeout bounds connection establishment per file.
	DefaultConnectionTimeout = 10 * time.Second

	// DefaultScanTimeout bounds each read or write per file.
	DefaultScanTimeout = time.Minute
)

// Config describes one directory scan.
type Config struct {
	// Directory is the directory whose direct entries are scanned.
	Directory string

	// Deep is the recursion depth. It is validated and recorded, but only
	// direct entries of Directory are scanned.
	Deep int

	// HashAlgorithm names the digest attached to each record.
	HashAlgorithm string

	// Client configures the clamd client the scanner creates. It is unused
	// when a client is supplied with WithClient.
	Client clamd.Config
}

// DefaultConfig returns a Config for dir with directory-mode defaults.
func DefaultConfig(dir string) Config {
	client := clamd.DefaultConfig()
	client.ConnectionTimeout = DefaultConnectionTimeout
	client.ScanTimeout = DefaultScanTimeout

	return Config{
		Directory:     dir,
		Deep:          DefaultDeep,
		HashAlgorithm: digest.DefaultAlgorithm,
		Client:        client,
	}
}

// Validate checks the directory-level fields. The client configuration is
// validated by clamd.NewClient.
func (c Config) Validate() error {
	if c.Deep < 0 {
		return ErrInvalidDeep
	}
	if _, err := digest.Canonical(c.HashAlgorithm); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidHashAlgorithm, c.HashAlgorithm)
	}
	return nil
}
