package scans

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sola-docstore/internal/filesystem"
	"sola-docstore/internal/logging"
)

// Observer receives the outcome of each clean pass.
type Observer interface {
	ObserveClean(removed int, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveClean(int, error) {}

// Config configures a Janitor.
type Config struct {
	Dir      string
	Lifetime time.Duration
	Interval time.Duration
}

// Option customizes a Janitor.
type Option func(*Janitor)

// WithObserver sets the observer notified after each pass.
func WithObserver(o Observer) Option {
	return func(j *Janitor) {
		if o != nil {
			j.observer = o
		}
	}
}

// WithClock replaces time.Now for age calculations.
func WithClock(now func() time.Time) Option {
	return func(j *Janitor) {
		if now != nil {
			j.now = now
		}
	}
}

// Janitor periodically deletes expired scans.
type Janitor struct {
	dir      string
	lifetime time.Duration
	interval time.Duration
	observer Observer
	now      func() time.Time
	retry    filesystem.RetryConfig

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewJanitor validates cfg and returns a stopped janitor.
func NewJanitor(cfg Config, opts ...Option) (*Janitor, error) {
	if cfg.Dir == "" {
		return nil, errors.New("scan folder is not configured")
	}
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("scanned file lifetime must be positive, got %v", cfg.Lifetime)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll period must be positive, got %v", cfg.Interval)
	}

	j := &Janitor{
		dir:      cfg.Dir,
		lifetime: cfg.Lifetime,
		interval: cfg.Interval,
		observer: nopObserver{},
		now:      time.Now,
		retry:    filesystem.DefaultRetryConfig(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Start runs a pass immediately and then once per interval until Stop.
func (j *Janitor) Start() {
	logging.Info("Scan folder janitor started: dir=%s lifetime=%v interval=%v", j.dir, j.lifetime, j.interval)
	go j.loop()
}

// Stop ends the loop and waits for a running pass to finish. It must only
// be called after Start.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
	})
	<-j.done
}

func (j *Janitor) loop() {
	defer close(j.done)

	j.runOnce()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.runOnce()
		case <-j.stopChan:
			return
		}
	}
}

func (j *Janitor) runOnce() {
	removed, err := j.Clean()
	if err != nil {
		logging.Warn("Scan folder clean finished with errors (%d removed): %v", removed, err)
		return
	}
	if removed > 0 {
		logging.Info("Removed %d expired scans from %s", removed, j.dir)
	}
}

// Clean deletes every regular file in the folder whose modification time is
// older than the lifetime. A missing folder is not an error. Per-file
// failures are joined into the returned error; the pass continues past them.
func (j *Janitor) Clean() (removed int, err error) {
	defer func() {
		j.observer.ObserveClean(removed, err)
	}()

	entries, err := filesystem.ReadDirWithRetry(j.dir, j.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debug("Scan folder %s does not exist, nothing to clean", j.dir)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read scan folder: %w", err)
	}

	cutoff := j.now().Add(-j.lifetime)
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			errs = append(errs, rmErr)
			continue
		}
		logging.Debug("Removed expired scan %s (modified %s)", path, info.ModTime().Format(time.RFC3339))
		removed++
	}

	return removed, errors.Join(errs...)
}
