package clamd_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/nao1215/clamscan/internal/clamd"
	"github.com/nao1215/clamscan/internal/clamd/clamdtest"
	"github.com/nao1215/clamscan/internal/scanerr"
)

// eicar is the standard antivirus test file.
const eicar = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

func newTestClient(t *testing.T, srv *clamdtest.Server, mutate func(*clamd.Config), opts ...clamd.Option) *clamd.Client {
	t.Helper()

	cfg := clamd.DefaultConfig()
	cfg.Host = srv.Host()
	cfg.Port = srv.Port()
	cfg.ConnectionTimeout = time.Second
	cfg.ScanTimeout = 2 * time.Second
	cfg.ShutdownGrace = time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := clamd.NewClient(cfg, opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("invalid configuration is a validation error", func(t *testing.T) {
		t.Parallel()

		cfg := clamd.DefaultConfig()
		cfg.Port = 0
		_, err := clamd.NewClient(cfg)
		if !scanerr.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !errors.Is(err, clamd.ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort in chain, got %v", err)
		}
	})

	t.Run("configuration is kept as given", func(t *testing.T) {
		t.Parallel()

		cfg := clamd.DefaultConfig()
		cfg.Host = "scanner.local"
		c, err := clamd.NewClient(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer c.Close()

		if c.Config() != cfg {
			t.Errorf("expected %+v, got %+v", cfg, c.Config())
		}
	})
}

func TestClientScan(t *testing.T) {
	t.Parallel()

	t.Run("clean stream", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Clean())
		c := newTestClient(t, srv, nil)

		outcome, err := c.Scan(context.Background(), strings.NewReader("hello world"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Infected {
			t.Error("expected clean outcome")
		}
		if outcome.RawResponse != "stream: OK" {
			t.Errorf("expected raw response 'stream: OK', got %q", outcome.RawResponse)
		}
		if outcome.ObservedAt.IsZero() {
			t.Error("expected ObservedAt to be set")
		}

		reqs := srv.Requests()
		if len(reqs) != 1 {
			t.Fatalf("expected 1 request, got %d", len(reqs))
		}
		if reqs[0].Command != "zINSTREAM" {
			t.Errorf("expected zINSTREAM, got %q", reqs[0].Command)
		}
		if !reqs[0].Terminated {
			t.Error("expected terminator to be sent")
		}
		if string(reqs[0].Payload) != "hello world" {
			t.Errorf("expected payload 'hello world', got %q", reqs[0].Payload)
		}
	})

	t.Run("infected stream", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Infected("Eicar-Test-Signature"))
		c := newTestClient(t, srv, nil)

		outcome, err := c.Scan(context.Background(), strings.NewReader(eicar))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !outcome.Infected {
			t.Error("expected infected outcome")
		}
		if outcome.SignatureName != "Eicar-Test-Signature" {
			t.Errorf("expected Eicar-Test-Signature, got %q", outcome.SignatureName)
		}
	})

	t.Run("large payload arrives in bounded chunks", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Clean())
		c := newTestClient(t, srv, nil)

		data := bytes.Repeat([]byte{0xAB}, 3*clamd.ChunkSize+17)
		if _, err := c.Scan(context.Background(), bytes.NewReader(data)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := srv.Requests()[0]
		for i, n := range req.ChunkSizes {
			if n < 1 || n > clamd.ChunkSize {
				t.Errorf("chunk %d has size %d", i, n)
			}
		}
		if !bytes.Equal(req.Payload, data) {
			t.Error("payload does not match input")
		}
	})

	t.Run("empty stream sends only the terminator", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Clean())
		c := newTestClient(t, srv, nil)

		if _, err := c.Scan(context.Background(), strings.NewReader("")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		req := srv.Requests()[0]
		if len(req.ChunkSizes) != 0 {
			t.Errorf("expected no data chunks, got %v", req.ChunkSizes)
		}
		if !req.Terminated {
			t.Error("expected terminator to be sent")
		}
	})

	t.Run("response without NUL is read until close", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, func(clamdtest.Request) []byte {
			return []byte("stream: OK")
		})
		c := newTestClient(t, srv, nil)

		outcome, err := c.Scan(context.Background(), strings.NewReader("x"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Infected {
			t.Error("expected clean outcome")
		}
	})

	t.Run("ERROR reply is a protocol error carrying the response", func(t *testing.T) {
		t.Parallel()

		line := "INSTREAM size limit exceeded. ERROR"
		srv := clamdtest.NewServer(t, clamdtest.Reply(line))
		c := newTestClient(t, srv, nil)

		_, err := c.Scan(context.Background(), strings.NewReader("x"))
		if !scanerr.IsProtocol(err) {
			t.Fatalf("expected protocol error, got %v", err)
		}
		var e *scanerr.Error
		if !errors.As(err, &e) || e.Response != line {
			t.Errorf("expected response %q to be preserved, got %+v", line, e)
		}
	})

	t.Run("unrecognized reply is a protocol error", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Reply("who are you"))
		c := newTestClient(t, srv, nil)

		if _, err := c.Scan(context.Background(), strings.NewReader("x")); !scanerr.IsProtocol(err) {
			t.Errorf("expected protocol error, got %v", err)
		}
	})

	t.Run("unreachable daemon is a connection error", func(t *testing.T) {
		t.Parallel()

		cfg := clamd.DefaultConfig()
		cfg.Host = "127.0.0.1"
		cfg.Port = clamdtest.UnusedPort(t)
		cfg.ConnectionTimeout = time.Second
		c, err := clamd.NewClient(cfg)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		defer c.Close()

		_, err = c.Scan(context.Background(), strings.NewReader("x"))
		if !scanerr.IsConnection(err) {
			t.Fatalf("expected connection error, got %v", err)
		}
		if !strings.Contains(err.Error(), cfg.Address()) {
			t.Errorf("expected error to name %s, got %v", cfg.Address(), err)
		}
	})

	t.Run("silent daemon is a timeout error", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Hang())
		c := newTestClient(t, srv, func(cfg *clamd.Config) {
			cfg.ScanTimeout = 100 * time.Millisecond
		})

		start := time.Now()
		_, err := c.Scan(context.Background(), strings.NewReader("x"))
		if !scanerr.IsTimeout(err) {
			t.Fatalf("expected timeout error, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("expected scan to give up quickly, took %v", elapsed)
		}
	})

	t.Run("input read failure is a protocol error", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Clean())
		c := newTestClient(t, srv, nil)

		boom := errors.New("device removed")
		_, err := c.Scan(context.Background(), iotest.ErrReader(boom))
		if !scanerr.IsProtocol(err) {
			t.Fatalf("expected protocol error, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected cause in chain, got %v", err)
		}
	})

	t.Run("cancelled context fails before sending", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Clean())
		c := newTestClient(t, srv, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := c.Scan(ctx, strings.NewReader("x")); !scanerr.IsConnection(err) {
			t.Errorf("expected connection error, got %v", err)
		}
	})

	t.Run("concurrent scans are independent", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Clean())
		c := newTestClient(t, srv, nil)

		const n = 8
		errs := make(chan error, n)
		for range n {
			go func() {
				_, err := c.Scan(context.Background(), strings.NewReader("payload"))
				errs <- err
			}()
		}
		for range n {
			if err := <-errs; err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}
		if got := len(srv.Requests()); got != n {
			t.Errorf("expected %d requests, got %d", n, got)
		}
	})
}

func TestClientScanFile(t *testing.T) {
	t.Parallel()

	t.Run("file content is streamed", func(t *testing.T) {
		t.Parallel()

		fs := memfs.New()
		if err := util.WriteFile(fs, "samples/eicar.com", []byte(eicar), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		srv := clamdtest.NewServer(t, clamdtest.Infected("Eicar-Test-Signature"))
		c := newTestClient(t, srv, nil, clamd.WithFilesystem(fs))

		outcome, err := c.ScanFile(context.Background(), "samples/eicar.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !outcome.Infected {
			t.Error("expected infected outcome")
		}
		if got := string(srv.Requests()[0].Payload); got != eicar {
			t.Errorf("expected file content to be streamed, got %q", got)
		}
	})

	t.Run("missing file is a protocol error naming the path", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Clean())
		c := newTestClient(t, srv, nil, clamd.WithFilesystem(memfs.New()))

		_, err := c.ScanFile(context.Background(), "nope.bin")
		if !scanerr.IsProtocol(err) {
			t.Fatalf("expected protocol error, got %v", err)
		}
		if !strings.Contains(err.Error(), "nope.bin") {
			t.Errorf("expected error to name the path, got %v", err)
		}
		if len(srv.Requests()) != 0 {
			t.Error("expected no request to reach the daemon")
		}
	})
}

func TestClientPing(t *testing.T) {
	t.Parallel()

	t.Run("PONG succeeds", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, clamdtest.Clean())
		c := newTestClient(t, srv, nil)

		if err := c.Ping(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := srv.Requests()[0].Command; got != "zPING" {
			t.Errorf("expected zPING, got %q", got)
		}
	})

	t.Run("other reply is a protocol error", func(t *testing.T) {
		t.Parallel()

		srv := clamdtest.NewServer(t, func(clamdtest.Request) []byte {
			return []byte("PING?\x00")
		})
		c := newTestClient(t, srv, nil)

		if err := c.Ping(context.Background()); !scanerr.IsProtocol(err) {
			t.Errorf("expected protocol error, got %v", err)
		}
	})
}

func TestClientVersion(t *testing.T) {
	t.Parallel()

	const version = "ClamAV 1.4.1/27400/Fri Oct 16 08:30:00 2026"
	srv := clamdtest.NewServer(t, func(req clamdtest.Request) []byte {
		if req.Command != "zVERSION" {
			return []byte("UNKNOWN COMMAND\x00")
		}
		return []byte(version + "\x00")
	})
	c := newTestClient(t, srv, nil)

	got, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != version {
		t.Errorf("expected %q, got %q", version, got)
	}
}
