package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpitracker/internal/source"
)

const sampleCSV = `Country,Continente,ano,CPI_Score,Press_Freedom_Score,PIB_per_Capita,IDH_2023
Brazil,Americas,2020,38,65.9,6797.0,0.758
Brazil,Americas,2023,36,58.6,10043.6,0.760
Denmark,Europe,2023,90,89.5,67790,0.952
Kenya,Africa,2023,31,,1950,NA
Brazil,Americas,2023,99,1,1,1
Nowhere,Africa,year,10,1,1,1
,Africa,2023,10,1,1,1
Chile,Americas,2023,,60,17000,0.86
`

func TestParse(t *testing.T) {
	rows, rep, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, 4, rep.Rows)
	assert.Equal(t, 1, rep.Duplicates)
	assert.Equal(t, 3, rep.Skipped)
	assert.NotEmpty(t, rep.Problems)

	brazil := rows[1]
	assert.Equal(t, "Brazil", brazil.Country)
	assert.Equal(t, "Americas", brazil.Continent)
	assert.Equal(t, 2023, brazil.Year)
	assert.Equal(t, 36.0, brazil.CPI)
	assert.Equal(t, 10043.6, brazil.GDPPerCapita.Value)
	assert.True(t, brazil.Complete())

	kenya := rows[3]
	assert.Equal(t, "Kenya", kenya.Country)
	assert.False(t, kenya.PressFreedom.Valid)
	assert.False(t, kenya.HDI.Valid)
	assert.True(t, kenya.GDPPerCapita.Valid)
}

func TestParseEnglishHeaders(t *testing.T) {
	in := "country,continent,year,cpi_score,press_freedom_score,gdp_per_capita,hdi\nJapan,Asia,2023,73,63.9,33834,0.92\n"
	rows, _, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Asia", rows[0].Continent)
	assert.Equal(t, 0.92, rows[0].HDI.Value)
}

func TestParseGroupedThousands(t *testing.T) {
	in := "Country,Continente,ano,CPI_Score,Press_Freedom_Score,PIB_per_Capita,IDH_2023\n" +
		"Brazil,Americas,2023,36,\"58,6\",\"10,043\",\"0,760\"\n" +
		"Denmark,Europe,2023,90,89.5,\"67,790.5\",0.952\n"
	rows, rep, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Zero(t, rep.Skipped)

	assert.Equal(t, 10043.0, rows[0].GDPPerCapita.Value)
	assert.Equal(t, 58.6, rows[0].PressFreedom.Value)
	assert.Equal(t, 0.76, rows[0].HDI.Value)
	assert.Equal(t, 67790.5, rows[1].GDPPerCapita.Value)
}

func TestParseMissingColumn(t *testing.T) {
	_, _, err := Parse(strings.NewReader("Country,ano,CPI_Score\nBrazil,2023,36\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrMissingColumn)
}

func TestReaderFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset_dashboard.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	r := New(path)
	assert.Equal(t, path, r.Describe())

	rows, rep, err := r.ReadObservations(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, path, rep.Source)

	_, _, err = New(filepath.Join(dir, "missing.csv")).ReadObservations(context.Background())
	assert.Error(t, err)
}
