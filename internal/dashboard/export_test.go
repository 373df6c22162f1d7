package dashboard

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []HistoryRow {
	return []HistoryRow{
		{
			OrderID:     "ord-1",
			ProjectKey:  "p1",
			ProjectName: "Mangrove Restoration",
			Vintage:     "2022",
			Quantity:    2.5,
			UnitPrice:   "11.00",
			TotalCost:   "27.50",
			Currency:    "USD",
			RetiredAt:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			OrderID:     "ord-2",
			ProjectKey:  "p2",
			ProjectName: "Forest Conservation",
			Vintage:     "2021",
			Quantity:    1,
			UnitPrice:   "13.20",
			TotalCost:   "13.20",
			Currency:    "USD",
			RetiredAt:   time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestExportCSV(t *testing.T) {
	data, err := ExportCSV(sampleRows())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, historyHeader, records[0])
	assert.Equal(t, []string{
		"ord-1", "Mangrove Restoration", "p1", "2022",
		"2.5", "11.00", "27.50", "USD", "2026-03-14",
	}, records[1])
	assert.Equal(t, "ord-2", records[2][0])
}

func TestExportCSVEmptyHistory(t *testing.T) {
	data, err := ExportCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, historyHeader, records[0])
}

func TestExportExcel(t *testing.T) {
	data, err := ExportExcel(sampleRows())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Retirements")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, historyHeader, rows[0])
	assert.Equal(t, "Mangrove Restoration", rows[1][1])
	assert.Equal(t, "27.50", rows[1][6])
}
