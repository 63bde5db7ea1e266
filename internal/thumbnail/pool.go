package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sola-docstore/internal/logging"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Pool runs pipeline requests on a bounded number of workers and applies a
// deadline to each request. Identical concurrent requests share one decode.
type Pool struct {
	pipeline *Pipeline
	sem      *semaphore.Weighted
	flights  singleflight.Group
	size     int
	timeout  time.Duration
}

// NewPool creates a pool of size workers. A timeout <= 0 disables the
// per-request deadline.
func NewPool(pipeline *Pipeline, size int, timeout time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		pipeline: pipeline,
		sem:      semaphore.NewWeighted(int64(size)),
		size:     size,
		timeout:  timeout,
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Thumbnail behaves like Pipeline.Thumbnail but gives up when ctx is done or
// the pool timeout expires. A decode that is already running cannot be
// stopped; it finishes in the background and its result is dropped.
func (p *Pool) Thumbnail(ctx context.Context, path string, width, height int) (*Bitmap, bool) {
	bmp, err := p.Generate(ctx, path, width, height)
	if err != nil {
		logUnavailable(path, err)
		return nil, false
	}
	return bmp, true
}

// Generate is Thumbnail with the failure reason.
func (p *Pool) Generate(ctx context.Context, path string, width, height int) (*Bitmap, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	key := fmt.Sprintf("%s|%d|%d", path, width, height)
	ch := p.flights.DoChan(key, func() (interface{}, error) {
		if err := p.acquire(); err != nil {
			return nil, err
		}
		defer p.sem.Release(1)
		return p.pipeline.Generate(path, width, height)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Bitmap), nil
	case <-ctx.Done():
		p.pipeline.observer.ObserveTimeout()
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// acquire waits for a free worker. The wait is detached from any single
// caller, since the flight may be shared, but never exceeds the pool timeout.
func (p *Pool) acquire() error {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: no free worker: %v", ErrTimeout, err)
	}
	return nil
}

func logUnavailable(path string, err error) {
	if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrSourceNotFound) {
		logging.Debug("Thumbnail unavailable for %s: %v", path, err)
		return
	}
	logging.Warn("Thumbnail unavailable for %s: %v", path, err)
}
