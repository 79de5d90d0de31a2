package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/gridledger/internal/csvio"
	"github.com/rewired-gh/gridledger/internal/models"
	"github.com/rewired-gh/gridledger/internal/storage"
)

const capacityCSV = "Coal,Oil & Gas,Nuclear,Hydro,Solar,Wind,Small-Hydro,Bio Power\n50,10,8,5,20,15,2,3"

type fakeFetcher struct {
	body string
	err  error
}

func (f *fakeFetcher) FetchCSV(ctx context.Context, url string) (csvio.Table, error) {
	if f.err != nil {
		return csvio.Table{}, f.err
	}
	return csvio.Parse(f.body), nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(storage.New(filepath.Join(t.TempDir(), "state.json"), 0o600, 0o700))
}

func TestResolveInitialState(t *testing.T) {
	csv := csvio.Parse(capacityCSV)

	persisted := models.NewRecord()
	persisted[models.Coal] = 99

	plfSaved := models.NewRecord()
	plfSaved[models.Coal] = 60

	t.Run("persisted installed wins over CSV", func(t *testing.T) {
		installed, _, ok := ResolveInitialState(persisted, nil, &csv)
		assert.True(t, ok)
		assert.Equal(t, 99.0, installed[models.Coal])
		assert.Equal(t, 0.0, installed[models.Solar])
	})

	t.Run("persisted PLF overlays onto zeros", func(t *testing.T) {
		_, plf, _ := ResolveInitialState(nil, plfSaved, &csv)
		assert.Equal(t, 60.0, plf[models.Coal])
		assert.Equal(t, 0.0, plf[models.Wind])
	})

	t.Run("CSV used when nothing persisted", func(t *testing.T) {
		installed, _, ok := ResolveInitialState(nil, nil, &csv)
		require.True(t, ok)
		assert.Equal(t, 50.0, installed[models.Coal])
		assert.Equal(t, 10.0, installed[models.OilGas])
		assert.Equal(t, 3.0, installed[models.BioPower])
	})

	t.Run("nil CSV leaves zeros and raises advisory", func(t *testing.T) {
		installed, _, ok := ResolveInitialState(nil, nil, nil)
		assert.False(t, ok)
		for _, s := range models.AllSources {
			assert.Equal(t, 0.0, installed[s])
		}
	})

	t.Run("CSV missing a source column fails", func(t *testing.T) {
		short := csvio.Parse("Coal,Solar\n50,20")
		_, _, ok := ResolveInitialState(nil, nil, &short)
		assert.False(t, ok)
	})

	t.Run("CSV without a data row fails", func(t *testing.T) {
		headerOnly := csvio.Parse("Coal,Oil & Gas,Nuclear,Hydro,Solar,Wind,Small-Hydro,Bio Power")
		_, _, ok := ResolveInitialState(nil, nil, &headerOnly)
		assert.False(t, ok)
	})

	t.Run("rows beyond the second are ignored", func(t *testing.T) {
		multi := csvio.Parse(capacityCSV + "\n1,1,1,1,1,1,1,1")
		installed, _, ok := ResolveInitialState(nil, nil, &multi)
		require.True(t, ok)
		assert.Equal(t, 50.0, installed[models.Coal])
	})
}

func TestInitFromCSV(t *testing.T) {
	s := newTestStore(t)
	s.Init(context.Background(), &fakeFetcher{body: capacityCSV}, "http://example/Capacity.csv")

	require.True(t, s.Loaded())
	installed := s.Installed()
	assert.Equal(t, 50.0, installed[models.Coal])
	assert.Equal(t, 10.0, installed[models.OilGas])
	assert.Equal(t, 8.0, installed[models.Nuclear])
	assert.Equal(t, 5.0, installed[models.Hydro])
	assert.Equal(t, 20.0, installed[models.Solar])
	assert.Equal(t, 15.0, installed[models.Wind])
	assert.Equal(t, 2.0, installed[models.SmallHydro])
	assert.Equal(t, 3.0, installed[models.BioPower])
}

func TestInitFetchFailureAllowsManualEntry(t *testing.T) {
	s := newTestStore(t)
	s.Init(context.Background(), &fakeFetcher{err: errors.New("connection refused")}, "http://example/Capacity.csv")

	assert.False(t, s.Loaded())
	for _, src := range models.AllSources {
		assert.Equal(t, 0.0, s.Installed()[src])
	}

	// Manual entry remains available.
	require.NoError(t, s.SetInstalled(models.Coal, 42))
	assert.Equal(t, 42.0, s.Installed()[models.Coal])
}

func TestRatedCapacity(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetInstalled(models.Coal, 50))
	require.NoError(t, s.SetPLF(models.Coal, 60))

	rated := s.Rated()
	assert.Equal(t, 30.0, rated[models.Coal])
	assert.Equal(t, 0.0, rated[models.Solar])
}

func TestSetPLFClampsToRange(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetPLF(models.Wind, 150))
	assert.Equal(t, 100.0, s.PLF()[models.Wind])

	require.NoError(t, s.SetPLF(models.Wind, -5))
	assert.Equal(t, 0.0, s.PLF()[models.Wind])
}

func TestSetUnknownSourceRejected(t *testing.T) {
	s := newTestStore(t)
	err := s.SetInstalled(models.Source("Fusion"), 1)
	require.Error(t, err)
	var unknownErr *UnknownSourceError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestMutationsPersistAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	persistence := storage.New(path, 0o600, 0o700)
	s := New(persistence)
	require.NoError(t, s.SetInstalled(models.Coal, 50))
	require.NoError(t, s.SetPLF(models.Coal, 60))

	// Restart: fresh storage over the same file; persisted state wins and
	// no CSV fetch happens (fetcher would fail loudly if called).
	persistence2 := storage.New(path, 0o600, 0o700)
	require.NoError(t, persistence2.Load())
	s2 := New(persistence2)
	s2.Init(context.Background(), &fakeFetcher{err: errors.New("must not be called")}, "http://example/Capacity.csv")

	assert.True(t, s2.Loaded())
	assert.Equal(t, 50.0, s2.Installed()[models.Coal])
	assert.Equal(t, 60.0, s2.PLF()[models.Coal])
	assert.Equal(t, 30.0, s2.Rated()[models.Coal])
}

func TestRefreshOnlyWhenNotLoaded(t *testing.T) {
	s := newTestStore(t)
	s.Init(context.Background(), &fakeFetcher{err: errors.New("down")}, "http://example/Capacity.csv")
	require.False(t, s.Loaded())

	s.Refresh(context.Background(), &fakeFetcher{body: capacityCSV}, "http://example/Capacity.csv")
	assert.True(t, s.Loaded())
	assert.Equal(t, 50.0, s.Installed()[models.Coal])

	// A loaded store ignores further refreshes.
	s.Refresh(context.Background(), &fakeFetcher{body: "Coal,Oil & Gas,Nuclear,Hydro,Solar,Wind,Small-Hydro,Bio Power\n1,1,1,1,1,1,1,1"}, "http://example/Capacity.csv")
	assert.Equal(t, 50.0, s.Installed()[models.Coal])
}
