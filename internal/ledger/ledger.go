// Package ledger maintains the historical monthly time series of per-source
// capacity values and answers range queries against it.
//
// Ingestion is tolerant by design: rows with unrecognizable month values are
// dropped silently, missing source columns read as zero, and only a missing
// "Month" header is treated as a (still non-fatal) ingestion failure that
// leaves the ledger empty and raises the "not loaded" advisory.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rewired-gh/gridledger/internal/aggregate"
	"github.com/rewired-gh/gridledger/internal/csvio"
	"github.com/rewired-gh/gridledger/internal/logger"
	"github.com/rewired-gh/gridledger/internal/models"
	"github.com/rewired-gh/gridledger/internal/month"
)

// monthColumn is the required header name, matched case-insensitively
// after trimming.
const monthColumn = "Month"

// Fetcher is the single-shot CSV retrieval dependency.
type Fetcher interface {
	FetchCSV(ctx context.Context, url string) (csvio.Table, error)
}

// Ledger holds the chronologically sorted historical entries.
type Ledger struct {
	entries []models.HistoricalEntry
	loaded  bool
	mu      sync.RWMutex
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Ingest replaces the ledger contents with the entries parsed from table.
// Returns an error only when the Month column is absent; the ledger is
// emptied in that case so stale entries never outlive a failed reload.
func (l *Ledger) Ingest(table csvio.Table) error {
	monthIdx := table.ColumnFold(monthColumn)
	if monthIdx < 0 {
		l.mu.Lock()
		l.entries = nil
		l.loaded = false
		l.mu.Unlock()
		return fmt.Errorf("historical CSV has no %q column", monthColumn)
	}

	sourceIdx := make(map[models.Source]int, len(models.AllSources))
	for _, s := range models.AllSources {
		sourceIdx[s] = table.Column(string(s))
	}

	var entries []models.HistoricalEntry
	skipped := 0
	for _, row := range table.Rows {
		key, ok := month.Normalize(csvio.Field(row, monthIdx))
		if !ok {
			skipped++
			continue
		}
		values := models.NewRecord()
		for _, s := range models.AllSources {
			values[s] = models.ParseNumber(csvio.Field(row, sourceIdx[s]))
		}
		entries = append(entries, models.HistoricalEntry{Month: key, Values: values})
	}
	if skipped > 0 {
		logger.Debug("Ledger ingest skipped %d rows with unrecognized month values", skipped)
	}

	// Stable sort keeps same-month duplicates in file order; the source CSV
	// is not deduplicated and At binds to the first match.
	sort.SliceStable(entries, func(i, j int) bool {
		return month.Compare(entries[i].Month, entries[j].Month) < 0
	})

	l.mu.Lock()
	l.entries = entries
	l.loaded = true
	l.mu.Unlock()
	return nil
}

// Refresh fetches the historical CSV and ingests it. Fetch and ingest
// failures degrade to the "not loaded" advisory; a ledger that already
// holds data keeps it on a failed re-fetch.
func (l *Ledger) Refresh(ctx context.Context, fetcher Fetcher, historyURL string) {
	table, err := fetcher.FetchCSV(ctx, historyURL)
	if err != nil {
		logger.Warn("Historical CSV fetch failed: %v", err)
		return
	}
	if err := l.Ingest(table); err != nil {
		logger.Warn("Historical CSV not loaded: %v", err)
	}
}

// Entries returns a copy of the sorted entries.
func (l *Ledger) Entries() []models.HistoricalEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.HistoricalEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = models.HistoricalEntry{Month: e.Month, Values: e.Values.Clone()}
	}
	return out
}

// Months returns the sorted month keys, duplicates included.
func (l *Ledger) Months() []month.Key {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]month.Key, len(l.entries))
	for i, e := range l.entries {
		keys[i] = e.Month
	}
	return keys
}

// Loaded reports whether the last ingest succeeded.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Latest returns the most recent month key, or ok=false for an empty ledger.
func (l *Ledger) Latest() (month.Key, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return "", false
	}
	return l.entries[len(l.entries)-1].Month, true
}

// At returns the values recorded for key. Linear scan, first match wins;
// a missing month yields ok=false and the caller renders a placeholder
// rather than an estimate.
func (l *Ledger) At(key month.Key) (models.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.atLocked(key)
}

func (l *Ledger) atLocked(key month.Key) (models.Record, bool) {
	for _, e := range l.entries {
		if e.Month == key {
			return e.Values.Clone(), true
		}
	}
	return nil, false
}

// Compare computes the signed per-source and total capacity difference
// between two months, end minus start. Either month missing from the
// ledger is an error for the caller to surface as "no data".
func (l *Ledger) Compare(start, end month.Key) (models.Delta, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.atLocked(start)
	if !ok {
		return models.Delta{}, fmt.Errorf("no data for month %s", start)
	}
	b, ok := l.atLocked(end)
	if !ok {
		return models.Delta{}, fmt.Errorf("no data for month %s", end)
	}
	return aggregate.Diff(start, end, a, b), nil
}
