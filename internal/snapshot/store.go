// Package snapshot holds the two live, editable capacity records — installed
// capacity and PLF — and derives rated capacity from them on demand.
//
// Initialization follows a fixed priority order: persisted state beats the
// CSV-derived initial state, which beats zeros. The priority policy itself is
// the pure function ResolveInitialState; Init is the imperative shell doing
// the storage read and CSV fetch around it.
//
// Every mutation persists the entire mutated record under its fixed storage
// key. Writes are best-effort: failures are logged and swallowed, matching
// the last-write-wins persistence contract.
package snapshot

import (
	"context"
	"sync"

	"github.com/rewired-gh/gridledger/internal/aggregate"
	"github.com/rewired-gh/gridledger/internal/csvio"
	"github.com/rewired-gh/gridledger/internal/logger"
	"github.com/rewired-gh/gridledger/internal/models"
	"github.com/rewired-gh/gridledger/internal/storage"
)

// Fetcher is the single-shot CSV retrieval dependency.
type Fetcher interface {
	FetchCSV(ctx context.Context, url string) (csvio.Table, error)
}

// Store holds the editable installed-capacity and PLF records.
type Store struct {
	installed models.Record
	plf       models.Record
	loaded    bool
	mu        sync.RWMutex

	persistence *storage.Store
}

// New creates a snapshot store backed by the given persistence store.
// Records start zeroed; call Init to apply the priority chain.
func New(persistence *storage.Store) *Store {
	return &Store{
		installed:   models.NewRecord(),
		plf:         models.NewRecord(),
		persistence: persistence,
	}
}

// ResolveInitialState applies the initialization priority order as a pure
// function of already-fetched inputs:
//
//  1. A persisted PLF record overlays its present keys onto zeros.
//  2. A persisted installed record is used in full and the CSV is ignored.
//  3. Otherwise a valid single-row capacity CSV supplies installed values.
//  4. Failing all of the above, installed stays zeroed and csvOK is false.
//
// csv may be nil when the fetch itself failed.
func ResolveInitialState(persistedInstalled, persistedPLF models.Record, csv *csvio.Table) (installed, plf models.Record, csvOK bool) {
	plf = models.NewRecord()
	if persistedPLF != nil {
		for _, s := range models.AllSources {
			plf[s] = clampPLF(models.Coerce(persistedPLF[s]))
		}
	}

	if persistedInstalled != nil {
		return persistedInstalled.Clone(), plf, true
	}

	installed = models.NewRecord()
	if csv == nil {
		return installed, plf, false
	}
	values, ok := parseCapacityCSV(*csv)
	if !ok {
		return installed, plf, false
	}
	return values, plf, true
}

// parseCapacityCSV reads the single-row current-capacity CSV: one header row
// of source names, one data row of numbers. Rows beyond the second are
// ignored. All eight source columns must be present.
func parseCapacityCSV(t csvio.Table) (models.Record, bool) {
	if len(t.Rows) < 1 {
		return nil, false
	}
	r := models.NewRecord()
	for _, s := range models.AllSources {
		idx := t.Column(string(s))
		if idx < 0 {
			return nil, false
		}
		r[s] = models.ParseNumber(csvio.Field(t.Rows[0], idx))
	}
	return r, true
}

// Init runs the initialization chain: read persisted state, fetch the
// capacity CSV only when needed, and install the resolved records.
// A failed fetch or malformed CSV is not fatal — installed capacity stays
// zeroed, the loaded advisory is raised, and manual entry remains available.
func (s *Store) Init(ctx context.Context, fetcher Fetcher, capacityURL string) {
	persistedInstalled, _ := s.persistence.GetRecord(storage.KeyInstalled)
	persistedPLF, _ := s.persistence.GetRecord(storage.KeyPLF)

	var csv *csvio.Table
	if persistedInstalled == nil {
		table, err := fetcher.FetchCSV(ctx, capacityURL)
		if err != nil {
			logger.Warn("Capacity CSV fetch failed: %v", err)
		} else {
			csv = &table
		}
	}

	installed, plf, csvOK := ResolveInitialState(persistedInstalled, persistedPLF, csv)

	s.mu.Lock()
	s.installed = installed
	s.plf = plf
	s.loaded = csvOK
	s.mu.Unlock()

	if !csvOK {
		logger.Warn("Current-capacity CSV not loaded, installed capacity starts at zero")
	}
}

// Refresh re-attempts the capacity CSV ingest for stores that never loaded.
// Persisted or manually entered state still wins: a store that is already
// loaded is left untouched.
func (s *Store) Refresh(ctx context.Context, fetcher Fetcher, capacityURL string) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}

	table, err := fetcher.FetchCSV(ctx, capacityURL)
	if err != nil {
		logger.Debug("Capacity CSV refresh failed: %v", err)
		return
	}
	values, ok := parseCapacityCSV(table)
	if !ok {
		return
	}

	s.mu.Lock()
	s.installed = values
	s.loaded = true
	s.mu.Unlock()
	s.persist(storage.KeyInstalled, values)
}

// Installed returns a copy of the installed-capacity record.
func (s *Store) Installed() models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.installed.Clone()
}

// PLF returns a copy of the PLF record.
func (s *Store) PLF() models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plf.Clone()
}

// Rated derives the rated-capacity record: round2(installed * plf / 100)
// per source. Never stored, always recomputed from the two live records.
func (s *Store) Rated() models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := models.NewRecord()
	for _, src := range models.AllSources {
		r[src] = aggregate.Round2(s.installed[src] * s.plf[src] / 100)
	}
	return r
}

// Loaded reports whether installed capacity came from persisted state or a
// successfully ingested CSV. False renders as the "CSV not loaded" advisory.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// SetInstalled updates one source's installed capacity and persists the
// whole record. Unknown sources are rejected.
func (s *Store) SetInstalled(src models.Source, value float64) error {
	if !src.IsValid() {
		return &UnknownSourceError{Source: src}
	}

	s.mu.Lock()
	next := s.installed.Clone()
	next[src] = models.Coerce(value)
	s.installed = next
	s.mu.Unlock()

	s.persist(storage.KeyInstalled, next)
	return nil
}

// SetPLF updates one source's PLF percentage, clamped to [0,100], and
// persists the whole record.
func (s *Store) SetPLF(src models.Source, value float64) error {
	if !src.IsValid() {
		return &UnknownSourceError{Source: src}
	}

	s.mu.Lock()
	next := s.plf.Clone()
	next[src] = clampPLF(models.Coerce(value))
	s.plf = next
	s.mu.Unlock()

	s.persist(storage.KeyPLF, next)
	return nil
}

// persist writes a record under its storage key, best-effort.
func (s *Store) persist(key string, r models.Record) {
	if err := s.persistence.PutRecord(key, r); err != nil {
		logger.Warn("Failed to persist %s: %v", key, err)
	}
}

func clampPLF(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// UnknownSourceError reports a mutation against a source outside the fixed
// enumeration.
type UnknownSourceError struct {
	Source models.Source
}

func (e *UnknownSourceError) Error() string {
	return "unknown energy source: " + string(e.Source)
}
