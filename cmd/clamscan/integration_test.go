package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// eicar is the standard antivirus test file. It is split so that this
// source file is not itself flagged by scanners.
var eicar = `X5O!P%@AP[4\PZX54(P^)7CC)7}$` + `EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

// skipIfShort skips the test if -short flag is set.
func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode (requires a running clamd)")
	}
}

// clamdAddress returns the host and port of a real clamd daemon taken from
// CLAMSCAN_TEST_CLAMD (host:port), or skips the test when it is unset or
// not reachable.
func clamdAddress(t *testing.T) (string, string) {
	t.Helper()

	addr := os.Getenv("CLAMSCAN_TEST_CLAMD")
	if addr == "" {
		t.Skip("skipping integration test: CLAMSCAN_TEST_CLAMD is not set")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("invalid CLAMSCAN_TEST_CLAMD %q: %v", addr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.Skipf("skipping integration test: clamd not reachable at %s", addr)
	}
	_ = conn.Close()

	return host, port
}

func TestIntegrationRealDaemon(t *testing.T) {
	skipIfShort(t)
	host, port := clamdAddress(t)

	t.Run("detects EICAR in a directory", func(t *testing.T) {
		dir := t.TempDir()
		writeTempFile(t, dir, "clean.txt", "nothing to see here")
		writeTempFile(t, dir, "eicar.com", eicar)

		res := runCLI(t, nil, "dir", "--config", emptyConfig(t),
			"-H", host, "-p", port, "--ping", dir)
		if res.code != exitInfected {
			t.Fatalf("expected exit code %d, got %d (stderr: %s)", exitInfected, res.code, res.stderr)
		}
		if !strings.Contains(res.stdout, "[FOUND] eicar.com: ") {
			t.Errorf("expected EICAR detection, got %q", res.stdout)
		}
		if !strings.Contains(res.stdout, "[OK] clean.txt") {
			t.Errorf("expected clean file, got %q", res.stdout)
		}
	})

	t.Run("scans stdin", func(t *testing.T) {
		res := runCLI(t, strings.NewReader(eicar), "scan", "--config", emptyConfig(t),
			"-H", host, "-p", port)
		if res.code != exitInfected {
			t.Fatalf("expected exit code %d, got %d (stderr: %s)", exitInfected, res.code, res.stderr)
		}
	})

	t.Run("reports daemon version", func(t *testing.T) {
		res := runCLI(t, nil, "version", "--daemon", "--config", emptyConfig(t),
			"-H", host, "-p", port)
		if res.code != exitOK {
			t.Fatalf("expected exit code %d, got %d (stderr: %s)", exitOK, res.code, res.stderr)
		}
		if !strings.Contains(res.stdout, "ClamAV") {
			t.Errorf("expected ClamAV version, got %q", res.stdout)
		}
	})

	t.Run("large file spans many chunks", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "large.bin")
		if err := os.WriteFile(path, make([]byte, 1<<20), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		res := runCLI(t, nil, "scan", "--config", emptyConfig(t), "-H", host, "-p", port, path)
		if res.code != exitOK {
			t.Fatalf("expected exit code %d, got %d (stderr: %s)", exitOK, res.code, res.stderr)
		}
	})
}
