package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by New for unusable size settings.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// CacheWriteError reports an I/O failure while creating or writing a cache file.
type CacheWriteError struct {
	Key string
	Op  string // "mkdir", "write" or "chtimes"
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write failed for %q (%s): %v", e.Key, e.Op, e.Err)
}

func (e *CacheWriteError) Unwrap() error {
	return e.Err
}

// FileTooLargeError reports a stored object that cannot be read into memory.
type FileTooLargeError struct {
	Key   string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("cached file %q is too large: %d bytes (limit %d)", e.Key, e.Size, e.Limit)
}

// InvalidKeyError reports a key that cannot name a file directly under the cache root.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid cache key %q: %s", e.Key, e.Reason)
}
