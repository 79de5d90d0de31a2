package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/gridledger/internal/models"
)

func TestBuildCapacityXLSX(t *testing.T) {
	installed := models.NewRecord()
	installed[models.Coal] = 50
	plf := models.NewRecord()
	plf[models.Coal] = 60
	rated := models.NewRecord()
	rated[models.Coal] = 30

	values := models.NewRecord()
	values[models.Coal] = 60
	values[models.Solar] = 40
	entries := []models.HistoricalEntry{{Month: "01/2023", Values: values}}

	data, err := BuildCapacityXLSX(installed, plf, rated, entries)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	// Coal is the first enumerated source, so it lands on row 2.
	got, err := f.GetCellValue("snapshot", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Coal", got)

	got, err = f.GetCellValue("snapshot", "B2")
	require.NoError(t, err)
	assert.Equal(t, "50", got)

	got, err = f.GetCellValue("snapshot", "D2")
	require.NoError(t, err)
	assert.Equal(t, "30", got)

	got, err = f.GetCellValue("history", "A2")
	require.NoError(t, err)
	assert.Equal(t, "01/2023", got)

	// Total column sits after the eight source columns.
	totalCell, err := excelize.CoordinatesToCellName(len(models.AllSources)+2, 2)
	require.NoError(t, err)
	got, err = f.GetCellValue("history", totalCell)
	require.NoError(t, err)
	assert.Equal(t, "100", got)
}
