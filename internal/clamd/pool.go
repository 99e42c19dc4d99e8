package clamd

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/clamscan/internal/model"
	"github.com/nao1215/clamscan/internal/scanerr"
)

// Pending is the deferred result of an async scan.
type Pending struct {
	done    chan struct{}
	outcome model.ScanOutcome
	err     error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(outcome model.ScanOutcome, err error) {
	p.outcome = outcome
	p.err = err
	close(p.done)
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the result is available or ctx is done. Giving up on
// ctx abandons the wait only; the scan itself keeps running.
func (p *Pending) Wait(ctx context.Context) (model.ScanOutcome, error) {
	select {
	case <-p.done:
		return p.outcome, p.err
	case <-ctx.Done():
		return model.ScanOutcome{}, ctx.Err()
	}
}

// workerPool bounds the number of concurrently running async scans.
// Submissions never block: each one waits on the semaphore in its own
// goroutine, which is the pool's queue.
type workerPool struct {
	sem *semaphore.Weighted

	// ctx is cancelled when queued work must be abandoned.
	ctx    context.Context
	cancel context.CancelFunc

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func newWorkerPool(size int) *workerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &workerPool{
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// submit runs fn on the pool. fn receives a context that is cancelled when
// the pool is force-terminated, so work that has not connected yet stops.
func (p *workerPool) submit(fn func(ctx context.Context) (model.ScanOutcome, error)) *Pending {
	pending := newPending()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		pending.resolve(model.ScanOutcome{}, closedError("client closed before scan was submitted"))
		return pending
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			pending.resolve(model.ScanOutcome{}, closedError("client closed before scan started"))
			return
		}
		defer p.sem.Release(1)

		// Acquire may succeed on an already cancelled context.
		if p.ctx.Err() != nil {
			pending.resolve(model.ScanOutcome{}, closedError("client closed before scan started"))
			return
		}

		pending.resolve(fn(p.ctx))
	}()

	return pending
}

// close stops accepting work. It returns false if the pool was already closed.
func (p *workerPool) close() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.closed = true
	return true
}

// drain waits up to grace for submitted work to finish, then cancels the
// pool context. It returns false if the grace period elapsed first; the
// caller must then terminate running work and call wait.
func (p *workerPool) drain(grace time.Duration) bool {
	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-drained:
		p.cancel()
		return true
	case <-timer.C:
		p.cancel()
		return false
	}
}

// wait blocks until every submitted goroutine has returned.
func (p *workerPool) wait() {
	p.wg.Wait()
}

func closedError(msg string) error {
	return scanerr.NewConnectionError(msg, ErrClientClosed)
}

// ScanAsync runs Scan on the worker pool. The call returns immediately;
// the result is identical to what Scan would have returned.
// Cancelling ctx before the connection is established aborts the scan;
// afterwards it has no effect.
func (c *Client) ScanAsync(ctx context.Context, r io.Reader) *Pending {
	return c.pool.submit(func(poolCtx context.Context) (model.ScanOutcome, error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(poolCtx, cancel)
		defer stop()
		return c.scan(ctx, r, true)
	})
}

// ScanFileAsync runs ScanFile on the worker pool.
func (c *Client) ScanFileAsync(ctx context.Context, path string) *Pending {
	return c.pool.submit(func(poolCtx context.Context) (model.ScanOutcome, error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(poolCtx, cancel)
		defer stop()
		return c.scanFile(ctx, path, true)
	})
}

// Close stops accepting async work and waits up to Config.ShutdownGrace for
// submitted scans to finish. Scans still queued after that are resolved with
// an error wrapping ErrClientClosed, and the connections of running async
// scans are closed so they fail fast. Synchronous Scan, ScanFile, Ping and
// Version calls are never cut off; they end on their own timeouts. Close returns once every pool goroutine has
// exited; it returns ErrForcedShutdown if termination was needed.
// Calling Close more than once is safe.
func (c *Client) Close() error {
	if !c.pool.close() {
		return nil
	}
	if c.pool.drain(c.cfg.ShutdownGrace) {
		return nil
	}

	n := c.closeActive()
	c.logger.Warn("terminating async scans after grace period",
		"grace", c.cfg.ShutdownGrace,
		"open_connections", n,
	)
	c.pool.wait()
	return ErrForcedShutdown
}
