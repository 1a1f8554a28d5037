// Package cache persists the set of already-reviewed head revisions so
// repeat runs against an unchanged change set can be skipped.
package cache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReviewCache is an append-only, line-per-revision file. There is no
// locking: concurrent runs against the same revision are a benign race
// whose worst case is a duplicate review, not corruption.
type ReviewCache struct {
	path string
}

// Open returns the cache for one repository, creating the storage
// directory under the user's home on first use.
func Open(owner, repo string) (*ReviewCache, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".scrutiny")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	name := fmt.Sprintf("%s_%s.reviewed", owner, repo)
	return &ReviewCache{path: filepath.Join(dir, name)}, nil
}

// OpenAt returns a cache backed by an explicit file path.
func OpenAt(path string) *ReviewCache {
	return &ReviewCache{path: path}
}

// Contains reports whether revision was already reviewed. A missing
// cache file simply means nothing was reviewed yet.
func (c *ReviewCache) Contains(revision string) (bool, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open review cache: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == revision {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read review cache: %w", err)
	}
	return false, nil
}

// Record appends revision to the cache.
func (c *ReviewCache) Record(revision string) error {
	if revision == "" {
		return nil
	}
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open review cache for append: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(revision + "\n"); err != nil {
		return fmt.Errorf("failed to append to review cache: %w", err)
	}
	return nil
}

// Path returns the backing file location.
func (c *ReviewCache) Path() string { return c.path }
