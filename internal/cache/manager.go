package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sola-docstore/internal/filesystem"
	"sola-docstore/internal/logging"

	"github.com/peterbourgon/diskv/v3"
)

const (
	// DefaultMaxBytes is the default ceiling for the cache root (200MB).
	DefaultMaxBytes int64 = 200 * 1024 * 1024
	// DefaultResizedBytes is the default post-eviction target (120MB).
	DefaultResizedBytes int64 = 120 * 1024 * 1024

	dirPerm  = 0o755
	filePerm = 0o644
)

// maxReadableSize bounds the objects Get will load into memory.
var maxReadableSize int64 = math.MaxInt32

// Config holds the startup parameters of a cache root.
type Config struct {
	Root         string
	MaxBytes     int64
	ResizedBytes int64
}

// Option customizes a Manager.
type Option func(*Manager)

// WithObserver sets the observer notified of cache events.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithClock overrides the clock used to stamp written files.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRetryConfig overrides the retry policy for stat and directory reads.
func WithRetryConfig(rc filesystem.RetryConfig) Option {
	return func(m *Manager) {
		m.retry = rc
	}
}

// Manager owns one cache root and its size accounting.
type Manager struct {
	root         string
	maxBytes     int64
	resizedBytes int64

	store    *diskv.Diskv
	retry    filesystem.RetryConfig
	observer Observer
	now      func() time.Time

	// mu serializes every mutation of the root: size bookkeeping,
	// eviction scans, deletes and writes.
	mu         sync.Mutex
	knownBytes int64
}

// New creates a Manager for cfg.Root. The directory itself is created
// lazily by the first Put.
func New(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: empty cache root", ErrInvalidConfig)
	}
	if cfg.MaxBytes <= 0 {
		return nil, fmt.Errorf("%w: max size must be positive, got %d", ErrInvalidConfig, cfg.MaxBytes)
	}
	if cfg.ResizedBytes < 0 || cfg.ResizedBytes >= cfg.MaxBytes {
		return nil, fmt.Errorf("%w: resize target %d must be in [0, %d)", ErrInvalidConfig, cfg.ResizedBytes, cfg.MaxBytes)
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root %s: %w", cfg.Root, err)
	}

	m := &Manager{
		root:         root,
		maxBytes:     cfg.MaxBytes,
		resizedBytes: cfg.ResizedBytes,
		retry:        filesystem.DefaultRetryConfig(),
		observer:     nopObserver{},
		now:          time.Now,
		knownBytes:   -1,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.store = diskv.New(diskv.Options{
		BasePath: root,
		// Flat layout: every key is a file directly under the root.
		Transform: func(string) []string {
			return nil
		},
		CacheSizeMax: 0,
		PathPerm:     dirPerm,
		FilePerm:     filePerm,
	})

	logging.Debug("Cache: root %s, max %d bytes, resize target %d bytes", root, m.maxBytes, m.resizedBytes)
	return m, nil
}

// Root returns the absolute cache root.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the location of key inside the cache root, whether or not it
// is cached. Callers use it to hand a cached document to an external viewer.
func (m *Manager) Path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return m.path(key), nil
}

func (m *Manager) path(key string) string {
	return filepath.Join(m.root, key)
}

// KnownBytes returns the running size estimate, or -1 while it is unknown.
func (m *Manager) KnownBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.knownBytes
}

// Put stores data under key, replacing any previous content, and stamps the
// file with the current time. When the root already exists the cache is
// trimmed first to make room for data.
func (m *Manager) Put(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.putLocked(key, data)
	m.observer.ObservePut(int64(len(data)), err)
	if err != nil {
		logging.Error("Cache: %v", err)
	}
	return err
}

func (m *Manager) putLocked(key string, data []byte) error {
	existed, err := m.rootExists()
	if err != nil {
		return &CacheWriteError{Key: key, Op: "mkdir", Err: err}
	}

	if existed {
		m.maintainLocked(int64(len(data)))
	} else {
		if err := os.MkdirAll(m.root, dirPerm); err != nil {
			return &CacheWriteError{Key: key, Op: "mkdir", Err: err}
		}
		// Nothing is known about a freshly created root yet.
		m.knownBytes = -1
		logging.Info("Cache: created root %s", m.root)
	}

	if err := m.store.Write(key, data); err != nil {
		return &CacheWriteError{Key: key, Op: "write", Err: err}
	}

	now := m.now()
	if err := os.Chtimes(m.path(key), now, now); err != nil {
		return &CacheWriteError{Key: key, Op: "chtimes", Err: err}
	}

	logging.Debug("Cache: stored %s (%d bytes)", key, len(data))
	return nil
}

func (m *Manager) rootExists() (bool, error) {
	info, err := filesystem.StatWithRetry(m.root, m.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("cache root %s is not a directory", m.root)
	}
	return true, nil
}

// Get returns the content stored under key. A missing entry, including one
// evicted between the existence check and the read, reports found == false
// with a nil error.
func (m *Manager) Get(key string) (data []byte, found bool, err error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	info, err := filesystem.StatWithRetry(m.path(key), m.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.observer.ObserveGet("miss")
			return nil, false, nil
		}
		m.observer.ObserveGet("error")
		return nil, false, fmt.Errorf("failed to stat cached file %s: %w", key, err)
	}
	if !info.Mode().IsRegular() {
		m.observer.ObserveGet("miss")
		return nil, false, nil
	}
	if info.Size() > maxReadableSize {
		m.observer.ObserveGet("error")
		return nil, false, &FileTooLargeError{Key: key, Size: info.Size(), Limit: maxReadableSize}
	}

	data, err = m.store.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debug("Cache: %s vanished before it could be read", key)
			m.observer.ObserveGet("miss")
			return nil, false, nil
		}
		m.observer.ObserveGet("error")
		return nil, false, fmt.Errorf("failed to read cached file %s: %w", key, err)
	}

	m.observer.ObserveGet("hit")
	return data, true, nil
}

// Exists reports whether key is currently cached.
func (m *Manager) Exists(key string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	return m.store.Has(key)
}

// IsCached is Exists.
func (m *Manager) IsCached(key string) bool {
	return m.Exists(key)
}

// DirectorySize sums the sizes of the files in the cache root. Subdirectory
// contents are only counted when recursive is set; the cache never creates
// subdirectories, so the non-recursive form is the normal one.
func (m *Manager) DirectorySize(recursive bool) int64 {
	size, err := DirectorySize(m.root, recursive, m.retry)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Cache: failed to measure %s: %v", m.root, err)
	}
	return size
}

// Stats describes the current state of a cache root.
type Stats struct {
	Root         string `json:"root"`
	Files        int    `json:"files"`
	Bytes        int64  `json:"bytes"`
	KnownBytes   int64  `json:"knownBytes"`
	MaxBytes     int64  `json:"maxBytes"`
	ResizedBytes int64  `json:"resizedBytes"`
}

// Stats scans the root and reports its file count and size alongside the
// configured limits.
func (m *Manager) Stats() (Stats, error) {
	stats := Stats{
		Root:         m.root,
		KnownBytes:   m.KnownBytes(),
		MaxBytes:     m.maxBytes,
		ResizedBytes: m.resizedBytes,
	}

	files, err := listFiles(m.root, m.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, err
	}

	stats.Files = len(files)
	for _, f := range files {
		stats.Bytes += f.size
	}
	return stats, nil
}
