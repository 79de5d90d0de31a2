package models

import (
	"errors"

	"github.com/rewired-gh/gridledger/internal/month"
)

// HistoricalEntry is one month's per-source capacity values from the
// historical CSV. Entries are unique-by-month only as far as the source
// data is; the ledger retains duplicates as found.
type HistoricalEntry struct {
	Month  month.Key `json:"month"`
	Values Record    `json:"values"`
}

// Validate checks that the entry carries a canonical month key and a
// record with the full source enumeration present.
func (e *HistoricalEntry) Validate() error {
	if !e.Month.Valid() {
		return errors.New("entry month must be a canonical MM/YYYY key")
	}
	if e.Values == nil {
		return errors.New("entry values must not be nil")
	}
	for _, s := range AllSources {
		if _, ok := e.Values[s]; !ok {
			return errors.New("entry values must contain every energy source")
		}
	}
	return nil
}
