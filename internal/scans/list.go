package scans

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sola-docstore/internal/filesystem"
)

// ErrInvalidName is returned by Resolve for names that are not plain file
// names.
var ErrInvalidName = errors.New("invalid scan name")

// Scan describes one file in the scan folder.
type Scan struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
	Previewable bool      `json:"previewable"`
}

// List returns the regular files in dir, newest first. supports decides the
// Previewable flag and may be nil.
func List(dir string, supports func(path string) bool) ([]Scan, error) {
	rc := filesystem.DefaultRetryConfig()
	entries, err := filesystem.ReadDirWithRetry(dir, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan folder %s: %w", dir, err)
	}

	scans := make([]Scan, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}

		path := filepath.Join(dir, entry.Name())
		scans = append(scans, Scan{
			Name:        entry.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			Previewable: supports != nil && supports(path),
		})
	}

	sort.SliceStable(scans, func(i, j int) bool {
		if scans[i].ModTime.Equal(scans[j].ModTime) {
			return scans[i].Name < scans[j].Name
		}
		return scans[i].ModTime.After(scans[j].ModTime)
	})
	return scans, nil
}

// Resolve joins name onto dir after checking that name is a plain file name.
func Resolve(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(dir, name), nil
}
