package cache

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"sola-docstore/internal/filesystem"
	"sola-docstore/internal/logging"
)

type cachedFile struct {
	name    string
	size    int64
	modTime time.Time
}

// MaintainCache accounts for a file of newFileSize bytes about to be added
// and evicts the oldest files if that would exceed the ceiling. Put calls it
// automatically; it is exported for operators who want to force a pass.
func (m *Manager) MaintainCache(newFileSize int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maintainLocked(newFileSize)
}

func (m *Manager) maintainLocked(newFileSize int64) {
	if m.knownBytes < 0 || m.knownBytes+newFileSize > m.maxBytes {
		size, err := DirectorySize(m.root, false, m.retry)
		if err != nil {
			logging.Warn("Cache: failed to measure %s, skipping eviction: %v", m.root, err)
			m.knownBytes = -1
			return
		}
		logging.Debug("Cache: recomputed size of %s: %d bytes", m.root, size)
		m.knownBytes = size
		m.observer.ObserveRecompute(size)
	}

	m.knownBytes += newFileSize
	if m.knownBytes <= m.maxBytes {
		return
	}

	m.purgeLocked()
}

// purgeLocked deletes files oldest first until knownBytes drops below the
// resize target or no files are left.
func (m *Manager) purgeLocked() {
	files, err := listFiles(m.root, m.retry)
	if err != nil {
		logging.Warn("Cache: failed to list %s for eviction: %v", m.root, err)
		return
	}

	logging.Info("Cache: %d bytes exceeds max %d, evicting down to %d", m.knownBytes, m.maxBytes, m.resizedBytes)

	var (
		evicted int
		freed   int64
	)
	for _, f := range files {
		if err := m.store.Erase(f.name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Cache: failed to evict %s: %v", f.name, err)
			continue
		}
		m.knownBytes -= f.size
		evicted++
		freed += f.size
		logging.Debug("Cache: evicted %s (%d bytes, modified %s)", f.name, f.size, f.modTime.Format(time.RFC3339))

		if m.knownBytes < m.resizedBytes {
			break
		}
	}

	shortfall := m.knownBytes >= m.resizedBytes
	if shortfall {
		logging.Warn("Cache: evicted %d files (%d bytes) but %d bytes remain above resize target %d",
			evicted, freed, m.knownBytes, m.resizedBytes)
	}
	m.observer.ObserveEviction(evicted, freed, shortfall)
}

// listFiles returns the regular files directly under dir, oldest first.
// Files with equal modification times keep their directory order.
func listFiles(dir string, rc filesystem.RetryConfig) ([]cachedFile, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, rc)
	if err != nil {
		return nil, err
	}

	files := make([]cachedFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed since the directory was read.
			continue
		}
		files = append(files, cachedFile{name: e.Name(), size: info.Size(), modTime: info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})
	return files, nil
}

// DirectorySize sums the sizes of the regular files in dir, descending into
// subdirectories only when recursive is set.
func DirectorySize(dir string, recursive bool, rc filesystem.RetryConfig) (int64, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, rc)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, e := range entries {
		switch {
		case e.IsDir():
			if recursive {
				sub, err := DirectorySize(filepath.Join(dir, e.Name()), true, rc)
				if err != nil {
					return total, err
				}
				total += sub
			}
		case e.Type().IsRegular():
			info, err := e.Info()
			if err != nil {
				continue
			}
			total += info.Size()
		}
	}
	return total, nil
}
