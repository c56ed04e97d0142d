// Package resource enforces process-wide limits shared by arenas and
// snapshot I/O.
package resource

import (
	"context"
	"io"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxNodes caps the node slots live arenas may hold across the
	// process. If 0, no hard limit is enforced (only tracking).
	MaxNodes int64

	// IOLimitBytesPerSec throttles snapshot reads and writes.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages limits shared by several arenas and by snapshot
// transfers. A nil *Controller is valid and enforces nothing.
type Controller struct {
	cfg Config

	// Nodes
	nodeSem   *semaphore.Weighted // nil if unlimited
	nodesUsed atomic.Int64

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MaxNodes > 0 {
		c.nodeSem = semaphore.NewWeighted(cfg.MaxNodes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// TryAcquireNodes attempts to reserve n node slots without blocking.
// Arena growth must not stall a builder, so there is no blocking variant:
// a false return is surfaced as a hard failure by the caller.
func (c *Controller) TryAcquireNodes(n int64) bool {
	if c == nil || n <= 0 {
		return true
	}

	if c.nodeSem != nil {
		if !c.nodeSem.TryAcquire(n) {
			return false
		}
	}

	c.nodesUsed.Add(n)
	return true
}

// ReleaseNodes returns reserved node slots, typically when an arena closes.
func (c *Controller) ReleaseNodes(n int64) {
	if c == nil || n <= 0 {
		return
	}

	if c.nodeSem != nil {
		c.nodeSem.Release(n)
	}
	c.nodesUsed.Add(-n)
}

// NodesInUse returns the number of node slots currently reserved.
func (c *Controller) NodesInUse() int64 {
	if c == nil {
		return 0
	}
	return c.nodesUsed.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}

// LimitWriter wraps w so writes respect the IO limit. If no limit is
// configured, w is returned unchanged.
func (c *Controller) LimitWriter(ctx context.Context, w io.Writer) io.Writer {
	if c == nil || c.ioLimiter == nil {
		return w
	}
	return &limitedWriter{ctx: ctx, c: c, w: w}
}

// LimitReader wraps r so reads respect the IO limit. If no limit is
// configured, r is returned unchanged.
func (c *Controller) LimitReader(ctx context.Context, r io.Reader) io.Reader {
	if c == nil || c.ioLimiter == nil {
		return r
	}
	return &limitedReader{ctx: ctx, c: c, r: r}
}

type limitedWriter struct {
	ctx context.Context
	c   *Controller
	w   io.Writer
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	var written int
	for len(p) > 0 {
		// WaitN rejects requests above the burst, so large writes are
		// fed through in burst-sized chunks.
		chunk := len(p)
		if b := lw.c.ioLimiter.Burst(); chunk > b {
			chunk = b
		}

		if err := lw.c.ioLimiter.WaitN(lw.ctx, chunk); err != nil {
			return written, err
		}

		n, err := lw.w.Write(p[:chunk])
		written += n
		if err != nil {
			return written, err
		}

		p = p[chunk:]
	}

	return written, nil
}

type limitedReader struct {
	ctx context.Context
	c   *Controller
	r   io.Reader
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if b := lr.c.ioLimiter.Burst(); len(p) > b {
		p = p[:b]
	}

	n, err := lr.r.Read(p)
	if n > 0 {
		// Charge for what was actually read.
		if werr := lr.c.ioLimiter.WaitN(lr.ctx, n); werr != nil && err == nil {
			err = werr
		}
	}

	return n, err
}
