// Package storage provides the durable key-value store backing the editable
// capacity records. Records are kept in memory and persisted to a single
// JSON file with atomic writes; the file is restored on startup when present.
//
// Persistence is best-effort, last-write-wins, with no acknowledgment path:
// every mutation of a record writes the entire record under its fixed key,
// and callers log and continue on failure rather than retrying.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/rewired-gh/gridledger/internal/models"
)

// Fixed persistence keys for the two editable capacity records.
const (
	KeyInstalled = "ratedCapacity_installed"
	KeyPLF       = "ratedCapacity_plf"
)

// Store is a thread-safe in-memory key-value store with file persistence.
// Each key holds a flat source-name to number mapping.
type Store struct {
	records map[string]map[string]float64
	mu      sync.RWMutex

	filePath        string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// persistenceFile is the on-disk JSON structure.
type persistenceFile struct {
	Version string                        `json:"version"`
	SavedAt time.Time                     `json:"saved_at"`
	Records map[string]map[string]float64 `json:"records"`
}

// New creates a Store persisting to filePath. An empty filePath falls back
// to an OS-appropriate tmp directory.
func New(filePath string, filePermissions, dirPermissions os.FileMode) *Store {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "gridledger", "state.json")
	}
	return &Store{
		records:         make(map[string]map[string]float64),
		filePath:        filePath,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// PutRecord stores the entire record under key and persists synchronously.
// The in-memory update always succeeds; only the file write can fail.
func (s *Store) PutRecord(key string, r models.Record) error {
	s.mu.Lock()
	flat := make(map[string]float64, len(models.AllSources))
	for _, src := range models.AllSources {
		flat[string(src)] = models.Coerce(r[src])
	}
	s.records[key] = flat
	s.mu.Unlock()

	return s.Save()
}

// GetRecord retrieves the record stored under key. The second return is
// false when the key has never been written. Only keys belonging to the
// fixed source enumeration are restored; foreign keys are dropped and
// absent sources read as 0.
func (s *Store) GetRecord(key string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flat, exists := s.records[key]
	if !exists {
		return nil, false
	}
	r := models.NewRecord()
	for _, src := range models.AllSources {
		if v, ok := flat[string(src)]; ok {
			r[src] = models.Coerce(v)
		}
	}
	return r, true
}

// Save persists the store state to file via a temp-file rename so a crash
// mid-write never corrupts the previous state.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, s.dirPermissions); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data := persistenceFile{
		Version: "1.0",
		SavedAt: time.Now(),
		Records: s.records,
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, s.filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Load restores store state from file. A missing file is not an error;
// the store simply starts empty and in-memory zeros apply.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clean up any stale temp file from a previous crash
	tempPath := s.filePath + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return nil
	}

	jsonData, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data persistenceFile
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	s.records = data.Records
	if s.records == nil {
		s.records = make(map[string]map[string]float64)
	}
	return nil
}
