package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpitracker/internal/core"
	"cpitracker/internal/source"
	"cpitracker/internal/source/memory"
)

func TestResolveColumnsAliases(t *testing.T) {
	cases := []struct {
		name   string
		header []string
	}{
		{"portuguese", []string{"Country", "Continente", "ano", "CPI_Score", "Press_Freedom_Score", "PIB_per_Capita", "IDH_2023"}},
		{"english", []string{"country", "continent", "year", "cpi_score", "press_freedom_score", "gdp_per_capita", "hdi"}},
		{"padded", []string{" Country ", "CONTINENTE", " Ano", "CPI_Score", "Press_Freedom_Score", "GDP_per_Capita", "IDH"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := source.ResolveColumns(tc.header)
			require.NoError(t, err)
			assert.Equal(t, source.Columns{Country: 0, Continent: 1, Year: 2, CPI: 3, Press: 4, GDP: 5, HDI: 6}, c)
		})
	}
}

func TestResolveColumnsOptionalAbsent(t *testing.T) {
	c, err := source.ResolveColumns([]string{"Country", "Continente", "ano", "CPI_Score"})
	require.NoError(t, err)
	assert.Equal(t, -1, c.Press)
	assert.Equal(t, -1, c.GDP)
	assert.Equal(t, -1, c.HDI)
}

func TestResolveColumnsMissing(t *testing.T) {
	_, err := source.ResolveColumns([]string{"Country", "ano"})
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrMissingColumn)
	assert.ErrorContains(t, err, "Continente,CPI_Score")
}

func TestParseTable(t *testing.T) {
	header := []string{"Country", "Continente", "ano", "CPI_Score", "Press_Freedom_Score"}
	rows := [][]string{
		{"Brazil", "Americas", "2023", "36", "58,6"},
		{"", "", "", "", ""},
		{"Brazil", "Americas", "2023", "40", ""},
		{"Chile", "Americas", "2023", "120", ""},
		{"Peru", "Americas", "2023", "33"},
	}
	obs, rep, err := source.ParseTable(header, rows)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 58.6, obs[0].PressFreedom.Value)
	assert.False(t, obs[1].PressFreedom.Valid)
	assert.Equal(t, 2, rep.Rows)
	assert.Equal(t, 1, rep.Duplicates)
	assert.Equal(t, 1, rep.Skipped)
	require.Len(t, rep.Problems, 2)
	assert.Contains(t, rep.Problems[0], "line 4")
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "b.csv")
	third := filepath.Join(dir, "c.csv")
	require.NoError(t, os.WriteFile(second, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(third, []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "a.csv"), 0o755))

	got, err := source.Locate([]string{filepath.Join(dir, "a.csv"), second, third})
	require.NoError(t, err)
	assert.Equal(t, second, got, "first existing regular file wins")

	_, err = source.Locate([]string{filepath.Join(dir, "nope.csv"), ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrDatasetNotFound))
	assert.ErrorContains(t, err, "nope.csv")
}

func TestProviderLoadsOnce(t *testing.T) {
	store := memory.New(memory.Sample())
	var loads int
	p := source.NewProvider(store, nil, func(ds *core.Dataset, rep source.Report) {
		loads++
		assert.Equal(t, "memory", rep.Source)
	})
	assert.False(t, p.Loaded())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := p.Dataset(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 2023, ds.LatestYear())
		}()
	}
	wg.Wait()

	assert.True(t, p.Loaded())
	assert.Equal(t, 1, store.Reads())
	assert.Equal(t, 1, loads)
}

func TestProviderRemembersFailure(t *testing.T) {
	store := memory.Failing(source.ErrDatasetNotFound)
	p := source.NewProvider(store, nil, nil)

	_, err := p.Dataset(context.Background())
	assert.ErrorIs(t, err, source.ErrDatasetNotFound)
	_, err = p.Dataset(context.Background())
	assert.ErrorIs(t, err, source.ErrDatasetNotFound)
	assert.Equal(t, 1, store.Reads())
	assert.False(t, p.Loaded())
}

func TestProviderRejectsDuplicates(t *testing.T) {
	rows := []core.Observation{
		{Country: "Peru", Continent: "Americas", Year: 2023, CPI: 33},
		{Country: "Peru", Continent: "Americas", Year: 2023, CPI: 34},
	}
	p := source.NewProvider(memory.New(rows), nil, nil)
	_, err := p.Dataset(context.Background())
	assert.ErrorIs(t, err, core.ErrDuplicateObservation)
}
