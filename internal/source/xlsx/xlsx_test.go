package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cpitracker/internal/source"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "tracker.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadObservations(t *testing.T) {
	path := writeWorkbook(t, "Data", [][]any{
		{"Global Corruption Tracker"},
		{},
		{"Country", "Continent", "Year", "CPI_Score", "Press_Freedom_Score", "GDP_per_Capita", "HDI"},
		{"Brazil", "Americas", 2020, 38, 65.9, 6797, 0.758},
		{"Brazil", "Americas", 2023, 36, 58.6, 10043, 0.76},
		{"Kenya", "Africa", 2023, 31, "", 1950, ""},
	})

	rows, rep, err := New(path, "").ReadObservations(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, path+"#Data", rep.Source)
	assert.Equal(t, 2020, rows[0].Year)
	assert.Equal(t, 36.0, rows[1].CPI)
	assert.False(t, rows[2].PressFreedom.Valid)
	assert.False(t, rows[2].HDI.Valid)
}

func TestReadObservationsIgnoresNumberFormats(t *testing.T) {
	f := excelize.NewFile()
	header := []any{"Country", "Continent", "Year", "CPI_Score", "Press_Freedom_Score", "GDP_per_Capita", "HDI"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	row := []any{"Brazil", "Americas", 2023, 36, 58.6, 10043, 0.76}
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))

	// #,##0 on GDP and 0.0 on press freedom
	grouped, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "F2", "F2", grouped))
	oneDecimal, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr("0.0")})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "E2", "E2", oneDecimal))

	path := filepath.Join(t.TempDir(), "formatted.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, _, err := New(path, "").ReadObservations(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10043.0, rows[0].GDPPerCapita.Value)
	assert.Equal(t, 58.6, rows[0].PressFreedom.Value)
	assert.Equal(t, 0.76, rows[0].HDI.Value)
}

func ptr[T any](v T) *T { return &v }

func TestReadObservationsNoHeader(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{{"a", "b"}, {1, 2}})
	_, _, err := New(path, "").ReadObservations(context.Background())
	assert.ErrorIs(t, err, source.ErrMissingColumn)
}
