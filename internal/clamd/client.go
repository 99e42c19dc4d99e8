package clamd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/net/proxy"

	"github.com/nao1215/clamscan/internal/model"
	"github.com/nao1215/clamscan/internal/scanerr"
)

// pongReply is the daemon's answer to CommandPing.
const pongReply = "PONG"

// Client runs scan transactions against one clamd daemon.
// It is safe for concurrent use; every call owns its own connection.
type Client struct {
	// cfg is the validated configuration. It is never modified.
	cfg Config

	// dialer opens the TCP connection, directly or through a proxy.
	dialer proxy.ContextDialer

	// fs resolves paths passed to ScanFile.
	fs billy.Basic

	// logger receives per-transaction debug logs.
	logger *slog.Logger

	// pool runs async scans.
	pool *workerPool

	// active holds the open connections of pool work so Close can
	// terminate stragglers. Once forced is set, no connection is admitted.
	active   map[net.Conn]struct{}
	forced   bool
	activeMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithFilesystem sets the filesystem ScanFile opens paths on.
// The default is the host filesystem.
func WithFilesystem(fs billy.Basic) Option {
	return func(c *Client) {
		c.fs = fs
	}
}

// WithDialer replaces the dialer. Config.ProxyAddress is ignored when a
// dialer is supplied.
func WithDialer(d proxy.ContextDialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// NewClient validates cfg and returns a Client. It does not contact the
// daemon; use Ping to check reachability.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, scanerr.NewValidationError("invalid client configuration", err)
	}

	c := &Client{
		cfg:    cfg,
		active: make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.fs == nil {
		c.fs = osfs.Default
	}
	if c.dialer == nil {
		d, err := newDialer(cfg)
		if err != nil {
			return nil, scanerr.NewValidationError("invalid proxy configuration", err)
		}
		c.dialer = d
	}
	c.pool = newWorkerPool(cfg.WorkerPoolSize)

	return c, nil
}

// newDialer returns a direct dialer, or a SOCKS5 dialer when a proxy is configured.
func newDialer(cfg Config) (proxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: cfg.ConnectionTimeout}
	if cfg.ProxyAddress == "" {
		return direct, nil
	}

	var auth *proxy.Auth
	if cfg.ProxyUser != "" {
		auth = &proxy.Auth{User: cfg.ProxyUser, Password: cfg.ProxyPassword}
	}
	d, err := proxy.SOCKS5("tcp", cfg.ProxyAddress, auth, direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Scan streams r to the daemon and returns the parsed verdict.
//
// ctx bounds connection establishment only. Once connected, the transaction
// runs until the daemon answers or an operation exceeds Config.ScanTimeout.
// r is read to exhaustion but not closed.
func (c *Client) Scan(ctx context.Context, r io.Reader) (model.ScanOutcome, error) {
	return c.scan(ctx, r, false)
}

// scan runs one INSTREAM transaction. pooled marks work owned by the worker
// pool, whose connection Close may terminate.
func (c *Client) scan(ctx context.Context, r io.Reader, pooled bool) (model.ScanOutcome, error) {
	start := time.Now()

	var stats streamStats
	line, err := c.roundTrip(ctx, pooled, func(w io.Writer) error {
		var werr error
		stats, werr = writeInstream(w, r)
		return werr
	})
	if err != nil {
		c.logger.Debug("scan transaction failed",
			"address", c.cfg.Address(),
			"chunks", stats.chunks,
			"bytes", stats.bytes,
			"error", err,
		)
		return model.ScanOutcome{}, err
	}

	outcome, err := ParseResponse(line, time.Now())
	if err != nil {
		c.logger.Debug("scan rejected by daemon",
			"address", c.cfg.Address(),
			"response", line,
			"error", err,
		)
		return model.ScanOutcome{}, err
	}

	c.logger.Debug("scan transaction complete",
		"address", c.cfg.Address(),
		"chunks", stats.chunks,
		"bytes", stats.bytes,
		"infected", outcome.Infected,
		"elapsed", time.Since(start),
	)
	return outcome, nil
}

// ScanFile opens path on the client's filesystem and scans it. The file is
// closed before ScanFile returns.
func (c *Client) ScanFile(ctx context.Context, path string) (model.ScanOutcome, error) {
	return c.scanFile(ctx, path, false)
}

func (c *Client) scanFile(ctx context.Context, path string, pooled bool) (model.ScanOutcome, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return model.ScanOutcome{}, scanerr.NewProtocolError(fmt.Sprintf("file read error: %s", path), "", err)
	}

	outcome, scanErr := c.scan(ctx, f, pooled)
	closeErr := f.Close()
	if scanErr != nil {
		return model.ScanOutcome{}, scanErr
	}
	if closeErr != nil {
		return model.ScanOutcome{}, scanerr.NewProtocolError(fmt.Sprintf("file close error: %s", path), "", closeErr)
	}
	return outcome, nil
}

// Ping checks that the daemon answers PONG.
func (c *Client) Ping(ctx context.Context) error {
	line, err := c.roundTrip(ctx, false, func(w io.Writer) error {
		return writeCommand(w, CommandPing)
	})
	if err != nil {
		return err
	}
	if line != pongReply {
		return scanerr.NewProtocolError("unexpected ping response", line, nil)
	}
	return nil
}

// Version returns the daemon's version line, e.g. "ClamAV 1.4.1/27400/...".
func (c *Client) Version(ctx context.Context) (string, error) {
	line, err := c.roundTrip(ctx, false, func(w io.Writer) error {
		return writeCommand(w, CommandVersion)
	})
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", scanerr.NewProtocolError("empty version response", line, nil)
	}
	return line, nil
}

// roundTrip opens a connection, lets send write the request, reads the reply
// line and closes the connection on every path. Connections of pooled work
// are tracked so a forced Close can cut them off.
func (c *Client) roundTrip(ctx context.Context, pooled bool, send func(io.Writer) error) (string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = conn.Close() //nolint:errcheck // the transaction outcome is already decided
	}()

	if pooled {
		if !c.track(conn) {
			return "", closedError("client closed before the request was sent")
		}
		defer c.untrack(conn)
	}

	if err := ctx.Err(); err != nil {
		return "", scanerr.NewConnectionError("scan cancelled before the request was sent", err)
	}

	dc := &deadlineConn{Conn: conn, timeout: c.cfg.ScanTimeout}
	if err := send(dc); err != nil {
		return "", c.classify("sending request", err)
	}

	line, err := readResponse(dc)
	if err != nil {
		return "", c.classify("reading response", err)
	}
	return line, nil
}

// dial connects within Config.ConnectionTimeout. Every failure, including
// a dial timeout, is a connection error.
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	addr := c.cfg.Address()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectionTimeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if isTimeout(err) {
			return nil, scanerr.NewConnectionError(
				fmt.Sprintf("connection to %s timed out after %s", addr, c.cfg.ConnectionTimeout), err)
		}
		return nil, scanerr.NewConnectionError(fmt.Sprintf("connection failed to %s", addr), err)
	}
	return conn, nil
}

// classify maps a failure on an established connection onto the taxonomy.
func (c *Client) classify(stage string, err error) error {
	var src *sourceError
	switch {
	case errors.As(err, &src):
		return scanerr.NewProtocolError("failed to read input stream", "", src.err)
	case errors.Is(err, errResponseTooLarge):
		return scanerr.NewProtocolError("response too large", "", err)
	case isTimeout(err):
		return scanerr.NewTimeoutError(
			fmt.Sprintf("scan timeout after %s while %s", c.cfg.ScanTimeout, stage), err)
	default:
		return scanerr.NewProtocolError(fmt.Sprintf("I/O operation failed while %s", stage), "", err)
	}
}

// isTimeout reports whether err is a deadline or net timeout.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// track registers conn for forced shutdown. It returns false once
// closeActive has run, in which case the caller must not use conn.
func (c *Client) track(conn net.Conn) bool {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	if c.forced {
		return false
	}
	c.active[conn] = struct{}{}
	return true
}

func (c *Client) untrack(conn net.Conn) {
	c.activeMu.Lock()
	delete(c.active, conn)
	c.activeMu.Unlock()
}

// closeActive closes every tracked connection, refuses any later ones and
// returns how many were closed.
func (c *Client) closeActive() int {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	c.forced = true
	for conn := range c.active {
		_ = conn.Close() //nolint:errcheck // forced termination
	}
	return len(c.active)
}

// deadlineConn refreshes the deadline before every read and write, so
// ScanTimeout bounds each operation rather than the whole transaction.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (d *deadlineConn) Read(p []byte) (int, error) {
	if err := d.Conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
		return 0, err
	}
	return d.Conn.Read(p)
}

func (d *deadlineConn) Write(p []byte) (int, error) {
	if err := d.Conn.SetWriteDeadline(time.Now().Add(d.timeout)); err != nil {
		return 0, err
	}
	return d.Conn.Write(p)
}
