// Package lyricscache persists scaled lyric sequences keyed by track
// signature, so replaying a previously resolved edit costs no network
// traffic.
package lyricscache

import (
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/slowverb/slowverb/internal/lrclib"
)

const (
	entryVersion         = 1
	defaultTTLDays       = 30
	cacheDirName         = "slowverb"
	lyricsSubdir         = "lyrics"
	DefaultBucketSeconds = 5.0
)

var (
	ErrMiss    = errors.New("cache miss")
	ErrCorrupt = errors.New("cache entry corrupt")
)

// Entry is one persisted resolution: the scaled line sequence plus enough
// provenance to display and audit it. Entries are write-once per signature;
// a colliding Put overwrites with an equivalent result.
type Entry struct {
	Version           uint8
	Artist            string
	Title             string
	Album             string
	Signature         string
	ScaleFactor       float64
	LowConfidence     bool
	ReferenceDuration float64
	LiveDuration      float64
	SyncOffset        float64
	Lines             []lrclib.Line
	ResolvedAt        int64
	ExpiresAt         int64
}

// Options tunes the store. Zero values take the defaults.
type Options struct {
	BucketSeconds float64
	TTL           time.Duration
}

type Store struct {
	basePath string
	bucket   float64
	ttl      time.Duration
	mu       sync.RWMutex
	mem      map[string]*Entry
}

// Open creates (if needed) and opens the cache directory. An empty dir
// selects the default location under the XDG cache home. Opening never
// fails on a read-only or missing home: the store degrades to memory-only.
func Open(dir string, opts Options) (*Store, error) {
	if opts.BucketSeconds <= 0 {
		opts.BucketSeconds = DefaultBucketSeconds
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTLDays * 24 * time.Hour
	}

	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			log.Warn().Err(err).Msg("cache directory unavailable, running memory-only")
			return &Store{bucket: opts.BucketSeconds, ttl: opts.TTL, mem: make(map[string]*Entry)}, nil
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Store{
		basePath: dir,
		bucket:   opts.BucketSeconds,
		ttl:      opts.TTL,
		mem:      make(map[string]*Entry),
	}, nil
}

// DefaultDir resolves the on-disk cache location, honoring XDG_CACHE_HOME.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, cacheDirName, lyricsSubdir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", cacheDirName, lyricsSubdir), nil
}

// Signature derives a cache signature using this store's bucket granularity.
func (s *Store) Signature(artist, title string, liveDuration float64) Signature {
	return NewSignature(artist, title, liveDuration, s.bucket)
}

// Get returns the stored entry for the signature. Corrupt or stale-format
// entries are removed and reported as a miss so the next successful
// resolution overwrites them.
func (s *Store) Get(sig Signature) (*Entry, error) {
	key := sig.Key()

	s.mu.RLock()
	entry, ok := s.mem[key]
	s.mu.RUnlock()

	if ok {
		if entry.ExpiresAt > time.Now().Unix() {
			return entry, nil
		}
		s.mu.Lock()
		delete(s.mem, key)
		s.mu.Unlock()
	}

	if s.basePath == "" {
		return nil, ErrMiss
	}

	path := s.entryPath(key)
	entry, err := readEntry(path)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			log.Warn().Str("signature", sig.String()).Msg("removing corrupt cache entry")
			_ = os.Remove(path)
			return nil, ErrMiss
		}
		return nil, err
	}

	if entry.ExpiresAt <= time.Now().Unix() {
		_ = os.Remove(path)
		return nil, ErrMiss
	}

	s.mu.Lock()
	s.mem[key] = entry
	s.mu.Unlock()

	return entry, nil
}

// Put stores the entry under the signature, stamping version and expiry.
func (s *Store) Put(sig Signature, entry *Entry) error {
	if entry == nil {
		return errors.New("nil cache entry")
	}

	key := sig.Key()
	now := time.Now().Unix()
	entry.Version = entryVersion
	entry.Signature = key
	entry.ResolvedAt = now
	entry.ExpiresAt = now + int64(s.ttl.Seconds())

	s.mu.Lock()
	s.mem[key] = entry
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}
	return writeEntry(s.entryPath(key), entry)
}

// Delete removes the entry for the signature, if any.
func (s *Store) Delete(sig Signature) error {
	key := sig.Key()

	s.mu.Lock()
	delete(s.mem, key)
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}
	err := os.Remove(s.entryPath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.mem = make(map[string]*Entry)
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}

	dirEntries, err := os.ReadDir(s.basePath)
	if err != nil {
		return err
	}
	for _, de := range dirEntries {
		if !de.IsDir() && strings.HasSuffix(de.Name(), ".bin") {
			_ = os.Remove(filepath.Join(s.basePath, de.Name()))
		}
	}
	return nil
}

// Prune removes expired and unreadable entries, returning how many went.
func (s *Store) Prune() (int, error) {
	if s.basePath == "" {
		return 0, nil
	}

	dirEntries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, err
	}

	pruned := 0
	now := time.Now().Unix()
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".bin") {
			continue
		}
		path := filepath.Join(s.basePath, de.Name())
		entry, err := readEntry(path)
		if err != nil || entry.ExpiresAt <= now {
			_ = os.Remove(path)
			pruned++
		}
	}
	return pruned, nil
}

// Stats reports entry count and total size on disk.
func (s *Store) Stats() (count int, sizeBytes int64, err error) {
	if s.basePath == "" {
		return 0, 0, nil
	}

	dirEntries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, 0, err
	}
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".bin") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		count++
		sizeBytes += info.Size()
	}
	return count, sizeBytes, nil
}

// ListAll loads every readable entry, skipping corrupt ones.
func (s *Store) ListAll() ([]*Entry, error) {
	if s.basePath == "" {
		return nil, nil
	}

	dirEntries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var result []*Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".bin") {
			continue
		}
		entry, err := readEntry(filepath.Join(s.basePath, de.Name()))
		if err != nil {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

// Dir returns the on-disk location, empty when memory-only.
func (s *Store) Dir() string {
	return s.basePath
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.basePath, key+".bin")
}

func readEntry(path string) (*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, err
	}
	defer file.Close()

	var entry Entry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, ErrCorrupt
	}
	if entry.Version != entryVersion {
		return nil, ErrCorrupt
	}
	return &entry, nil
}

func writeEntry(path string, entry *Entry) error {
	// temp file plus rename keeps readers from seeing a torn entry
	tmp := path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(entry); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
