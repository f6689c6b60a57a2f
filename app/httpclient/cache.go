package httpclient

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry holds the cached metadata for a URL. The body is stored in a
// sibling file so metadata reads do not load response bodies.
type Entry struct {
	Status       int               `json:"status"`
	Headers      map[string]string `json:"headers"`
	FinalURL     string            `json:"final_url"`
	ETag         string            `json:"etag,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	FetchedAt    time.Time         `json:"fetched_at"`
}

// Cache is an on-disk store of response bodies and metadata, keyed by
// hash(URL). Entries are never evicted; operators clear the directory
// out-of-band (or via Clear).
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Get returns the entry and body for a URL, or (nil, nil, nil) on a miss.
func (c *Cache) Get(rawURL string) (*Entry, []byte, error) {
	key := c.key(rawURL)

	data, err := os.ReadFile(filepath.Join(c.dir, key+".json"))
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, nil, fmt.Errorf("failed to decode cache metadata: %w", err)
	}

	body, err := os.ReadFile(filepath.Join(c.dir, key+".body"))
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cache body: %w", err)
	}

	return &entry, body, nil
}

// Put overwrites any prior entry for the URL. Both files are written to
// a temp path and renamed so concurrent readers never see partial content.
func (c *Cache) Put(rawURL string, entry Entry, body []byte) error {
	key := c.key(rawURL)

	meta, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache metadata: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(c.dir, key+".body"), body); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(c.dir, key+".json"), meta)
}

// Touch refreshes the FetchedAt timestamp after a 304 revalidation,
// leaving the stored body untouched.
func (c *Cache) Touch(rawURL string, at time.Time) error {
	key := c.key(rawURL)
	path := filepath.Join(c.dir, key+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return fmt.Errorf("failed to decode cache metadata: %w", err)
	}

	entry.FetchedAt = at
	meta, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache metadata: %w", err)
	}

	return writeFileAtomic(path, meta)
}

func (c *Cache) IsFresh(entry *Entry, ttl time.Duration) bool {
	if entry == nil {
		return false
	}
	return time.Since(entry.FetchedAt) <= ttl
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"))
	if err != nil {
		return fmt.Errorf("failed to list cache directory: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("failed to remove cache file: %w", err)
		}
	}
	return nil
}

func (c *Cache) key(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
