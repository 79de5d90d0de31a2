// Package report renders the engine state as an XLSX workbook for download
// from the dashboard: one sheet for the current snapshot (installed, PLF,
// rated) and one for the historical monthly series.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/gridledger/internal/aggregate"
	"github.com/rewired-gh/gridledger/internal/models"
)

// BuildCapacityXLSX renders the snapshot and history sheets.
func BuildCapacityXLSX(installed, plf, rated models.Record, entries []models.HistoricalEntry) ([]byte, error) {
	f := excelize.NewFile()
	snapshotSheet := "snapshot"
	historySheet := "history"
	f.SetSheetName("Sheet1", snapshotSheet)
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, fmt.Errorf("failed to create history sheet: %w", err)
	}

	_ = f.SetCellValue(snapshotSheet, "A1", "Source")
	_ = f.SetCellValue(snapshotSheet, "B1", "Installed (GW)")
	_ = f.SetCellValue(snapshotSheet, "C1", "PLF (%)")
	_ = f.SetCellValue(snapshotSheet, "D1", "Rated (GW)")
	for i, s := range models.AllSources {
		row := i + 2
		_ = f.SetCellValue(snapshotSheet, fmt.Sprintf("A%d", row), string(s))
		_ = f.SetCellValue(snapshotSheet, fmt.Sprintf("B%d", row), installed[s])
		_ = f.SetCellValue(snapshotSheet, fmt.Sprintf("C%d", row), plf[s])
		_ = f.SetCellValue(snapshotSheet, fmt.Sprintf("D%d", row), rated[s])
	}
	totalRow := len(models.AllSources) + 2
	_ = f.SetCellValue(snapshotSheet, fmt.Sprintf("A%d", totalRow), "Total")
	_ = f.SetCellValue(snapshotSheet, fmt.Sprintf("B%d", totalRow), aggregate.Round2(aggregate.Total(installed)))
	_ = f.SetCellValue(snapshotSheet, fmt.Sprintf("D%d", totalRow), aggregate.Round2(aggregate.Total(rated)))

	_ = f.SetCellValue(historySheet, "A1", "Month")
	for i, s := range models.AllSources {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		_ = f.SetCellValue(historySheet, cell, string(s))
	}
	totalCol, _ := excelize.CoordinatesToCellName(len(models.AllSources)+2, 1)
	_ = f.SetCellValue(historySheet, totalCol, "Total (GW)")

	for rowIdx, e := range entries {
		row := rowIdx + 2
		_ = f.SetCellValue(historySheet, fmt.Sprintf("A%d", row), string(e.Month))
		for i, s := range models.AllSources {
			cell, _ := excelize.CoordinatesToCellName(i+2, row)
			_ = f.SetCellValue(historySheet, cell, e.Values[s])
		}
		cell, _ := excelize.CoordinatesToCellName(len(models.AllSources)+2, row)
		_ = f.SetCellValue(historySheet, cell, aggregate.Round2(aggregate.Total(e.Values)))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
