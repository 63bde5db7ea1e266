package cache

import (
	"fmt"
	"strings"
)

// DocumentKey builds the recommended cache key for a document revision.
// A new revision yields a new key, leaving the previous entry to be evicted.
func DocumentKey(documentID string, revision int64) string {
	return fmt.Sprintf("%s_%d", documentID, revision)
}

// ValidateKey checks that key names a plain file inside the cache root.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return &InvalidKeyError{Key: key, Reason: "empty"}
	case key == "." || key == "..":
		return &InvalidKeyError{Key: key, Reason: "reserved name"}
	case strings.ContainsAny(key, `/\`):
		return &InvalidKeyError{Key: key, Reason: "contains a path separator"}
	case strings.ContainsRune(key, 0):
		return &InvalidKeyError{Key: key, Reason: "contains a NUL byte"}
	}
	return nil
}
