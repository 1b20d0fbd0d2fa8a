package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"satkit/internal/logging"
)

// fileVersion guards against reading manifests written by an incompatible
// future layout.
const fileVersion = 1

// Key identifies one derived artifact within a recorded-data directory.
type Key struct {
	SourceID    string
	Kind        string
	Fingerprint string
}

// Entry records where a derived artifact was written and when.
type Entry struct {
	SourceID    string    `yaml:"source_id"`
	Kind        string    `yaml:"kind"`
	Fingerprint string    `yaml:"fingerprint"`
	Location    string    `yaml:"location"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

func (e Entry) key() Key {
	return Key{SourceID: e.SourceID, Kind: e.Kind, Fingerprint: e.Fingerprint}
}

// ParseError reports a manifest file that exists but cannot be read. It
// aborts scenario resolution for the owning directory instead of being
// treated as an empty manifest.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConflictError reports a Record call whose key already exists with a
// different location: the manifest disagrees with itself about where the
// artifact lives.
type ConflictError struct {
	Key      Key
	Existing string
	Proposed string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("manifest conflict for %s/%s/%s: recorded at %q, proposed %q",
		e.Key.SourceID, e.Key.Kind, e.Key.Fingerprint, e.Existing, e.Proposed)
}

// Store provides thread-safe access to one directory's manifest.
type Store struct {
	dir      string
	path     string
	lockPath string
	logger   *slog.Logger
	lock     *flock.Flock

	mu      sync.Mutex
	entries map[Key]Entry
	dirty   bool
}

// NewStore creates a store for the manifest of one recorded-data directory.
// Call Load before the first Lookup.
func NewStore(dir, fileName, lockFileName string, logger *slog.Logger) *Store {
	return &Store{
		dir:      dir,
		path:     filepath.Join(dir, fileName),
		lockPath: filepath.Join(dir, lockFileName),
		logger:   logging.NewComponentLogger(logger, "manifest"),
		entries:  make(map[Key]Entry),
	}
}

// Dir returns the recorded-data directory this manifest describes.
func (s *Store) Dir() string { return s.dir }

// Path returns the manifest file path.
func (s *Store) Path() string { return s.path }

// Lock takes the directory's advisory manifest lock, blocking until it is
// available. Callers running concurrent scenario processes use this to uphold
// the single-writer-per-directory model.
func (s *Store) Lock() error {
	s.mu.Lock()
	if s.lock == nil {
		s.lock = flock.New(s.lockPath)
	}
	lock := s.lock
	s.mu.Unlock()

	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock manifest directory %q: %w", s.dir, err)
	}
	return nil
}

// Unlock releases the advisory manifest lock.
func (s *Store) Unlock() error {
	s.mu.Lock()
	lock := s.lock
	s.mu.Unlock()
	if lock == nil {
		return nil
	}
	return lock.Unlock()
}

// Load reads the manifest file into memory. A missing file is a fresh start,
// not an error. A file that fails to parse returns a ParseError.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.mu.Lock()
			s.entries = make(map[Key]Entry)
			s.dirty = false
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read manifest %s: %w", s.path, err)
	}

	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return &ParseError{Path: s.path, Err: err}
	}
	if file.Version > fileVersion {
		return &ParseError{Path: s.path, Err: fmt.Errorf("unsupported manifest version %d", file.Version)}
	}

	entries := make(map[Key]Entry, len(file.Entries))
	for _, entry := range file.Entries {
		if strings.TrimSpace(entry.SourceID) == "" || strings.TrimSpace(entry.Fingerprint) == "" {
			return &ParseError{Path: s.path, Err: errors.New("entry missing source_id or fingerprint")}
		}
		entries[entry.key()] = entry
	}

	s.mu.Lock()
	s.entries = entries
	s.dirty = false
	s.mu.Unlock()

	s.logger.Debug("loaded manifest",
		logging.Int("entry_count", len(entries)),
		logging.String(logging.FieldDirectory, s.dir))
	return nil
}

// Lookup returns the entry for the given key if present. A miss is a normal,
// expected result and never an error.
func (s *Store) Lookup(sourceID, kind, fingerprint string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, found := s.entries[Key{SourceID: sourceID, Kind: kind, Fingerprint: fingerprint}]
	return entry, found
}

// Record buffers an entry. Recording an existing key with the same location
// is a no-op; a different location returns ConflictError unless overwrite is
// set. Mutations become durable on Persist.
func (s *Store) Record(entry Entry, overwrite bool) error {
	if strings.TrimSpace(entry.SourceID) == "" {
		return errors.New("manifest entry source id must not be empty")
	}
	if strings.TrimSpace(entry.Fingerprint) == "" {
		return errors.New("manifest entry fingerprint must not be empty")
	}
	if entry.GeneratedAt.IsZero() {
		entry.GeneratedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.key()
	if existing, found := s.entries[key]; found {
		if existing.Location == entry.Location {
			return nil
		}
		if !overwrite {
			return &ConflictError{Key: key, Existing: existing.Location, Proposed: entry.Location}
		}
	}
	s.entries[key] = entry
	s.dirty = true
	return nil
}

// Remove drops a buffered entry, typically after detecting that its artifact
// no longer exists. Removing an absent key is a no-op.
func (s *Store) Remove(sourceID, kind, fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Key{SourceID: sourceID, Kind: kind, Fingerprint: fingerprint}
	if _, found := s.entries[key]; found {
		delete(s.entries, key)
		s.dirty = true
	}
}

// Entries returns all entries sorted by source, kind, and fingerprint.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEntriesLocked()
}

// Persist writes buffered mutations to disk atomically via a temporary file
// and rename. It is a no-op when nothing changed since Load or the last
// Persist.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	file := manifestFile{Version: fileVersion, Entries: s.sortedEntriesLocked()}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp manifest: %w", err)
	}

	s.dirty = false
	s.logger.Debug("persisted manifest",
		logging.Int("entry_count", len(s.entries)),
		logging.String(logging.FieldDirectory, s.dir))
	return nil
}

// sortedEntriesLocked returns entries in deterministic order; the caller
// holds s.mu.
func (s *Store) sortedEntriesLocked() []Entry {
	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SourceID != entries[j].SourceID {
			return entries[i].SourceID < entries[j].SourceID
		}
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind < entries[j].Kind
		}
		return entries[i].Fingerprint < entries[j].Fingerprint
	})
	return entries
}

type manifestFile struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}
