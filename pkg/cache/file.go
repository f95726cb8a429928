package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Cache categories used by the file store. The management endpoint only
// clears categories from this set.
const (
	CategoryTournaments = "tournaments"
	CategoryPlayers     = "players"
	CategoryMatches     = "matches"
)

var Categories = []string{CategoryTournaments, CategoryPlayers, CategoryMatches}

// ValidCategory reports whether name is one of the known cache categories.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// DefaultTTL is how long entries live unless the caller says otherwise.
const DefaultTTL = 24 * time.Hour

var ErrCacheMiss = fmt.Errorf("cache miss")

type fileEntry struct {
	Data     json.RawMessage `json:"data"`
	CachedAt int64           `json:"cachedAt"` // unix milliseconds
	TTL      int64           `json:"ttl"`      // milliseconds
}

// FileStore is a file-per-entry JSON cache with per-entry TTL. Entries are
// addressed by (category, key); expired entries are evicted lazily on read.
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

func (s *FileStore) entryPath(category, key string) string {
	safeKey := unsafeKeyChars.ReplaceAllString(key, "_")
	return filepath.Join(s.dir, category, safeKey+".json")
}

// Get reads a cached value into dest. Returns ErrCacheMiss when the entry
// is absent or past its TTL; expired entries are removed on the way out.
func (s *FileStore) Get(category, key string, dest interface{}) error {
	path := s.entryPath(category, key)

	content, err := os.ReadFile(path)
	if err != nil {
		return ErrCacheMiss
	}

	var entry fileEntry
	if err := json.Unmarshal(content, &entry); err != nil {
		// Corrupt entry, treat as absent
		os.Remove(path)
		return ErrCacheMiss
	}

	age := s.now().UnixMilli() - entry.CachedAt
	if age > entry.TTL {
		os.Remove(path)
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.Data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return nil
}

// Set stores a value under (category, key) with the given TTL.
func (s *FileStore) Set(category, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	path := s.entryPath(category, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	entry := fileEntry{
		Data:     data,
		CachedAt: s.now().UnixMilli(),
		TTL:      ttl.Milliseconds(),
	}
	content, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	return os.WriteFile(path, content, 0o644)
}

// Delete removes one entry. Missing entries are not an error.
func (s *FileStore) Delete(category, key string) error {
	err := os.Remove(s.entryPath(category, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearCategory removes every entry in a category.
func (s *FileStore) ClearCategory(category string) error {
	categoryPath := filepath.Join(s.dir, category)
	files, err := os.ReadDir(categoryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, f := range files {
		if err := os.Remove(filepath.Join(categoryPath, f.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// ClearAll removes every entry in every category.
func (s *FileStore) ClearAll() error {
	categories, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, c := range categories {
		if c.IsDir() {
			if err := s.ClearCategory(c.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}

type CategoryStats struct {
	Name  string `json:"name"`
	Files int    `json:"files"`
	Size  int64  `json:"size"`
}

type StoreStats struct {
	Categories []CategoryStats `json:"categories"`
	TotalFiles int             `json:"totalFiles"`
	TotalSize  int64           `json:"totalSize"`
}

// Stats walks the cache directory and reports per-category file and byte
// counts.
func (s *FileStore) Stats() (*StoreStats, error) {
	stats := &StoreStats{Categories: []CategoryStats{}}

	categories, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}

	for _, c := range categories {
		if !c.IsDir() {
			continue
		}
		categoryPath := filepath.Join(s.dir, c.Name())
		files, err := os.ReadDir(categoryPath)
		if err != nil {
			continue
		}
		cat := CategoryStats{Name: c.Name(), Files: len(files)}
		for _, f := range files {
			if info, err := f.Info(); err == nil {
				cat.Size += info.Size()
			}
		}
		stats.Categories = append(stats.Categories, cat)
		stats.TotalFiles += cat.Files
		stats.TotalSize += cat.Size
	}

	return stats, nil
}
