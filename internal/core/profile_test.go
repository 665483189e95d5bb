package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfileBrazil(t *testing.T) {
	ds, err := NewDataset([]Observation{
		obs("Brazil", "Americas", 2023, 42),
		obs("Brazil", "Americas", 2020, 35),
	})
	require.NoError(t, err)

	p, err := BuildProfile(ds, "Brazil")
	require.NoError(t, err)

	assert.Equal(t, 7.0, p.Delta)
	assert.Equal(t, []YearValue{{2020, 35}, {2023, 42}}, p.CountrySeries)
	assert.Equal(t, 2020, p.First.Year)
	assert.Equal(t, 2023, p.Latest.Year)
	assert.Equal(t, "+7.0 (vs 2020)", p.DeltaLabel())
}

func TestBuildProfileSingleYear(t *testing.T) {
	ds, err := NewDataset([]Observation{obs("Kenya", "Africa", 2023, 31)})
	require.NoError(t, err)

	p, err := BuildProfile(ds, "Kenya")
	require.NoError(t, err)
	assert.Zero(t, p.Delta)
	assert.Equal(t, p.First, p.Latest)
	assert.Len(t, p.CountrySeries, 1)
}

func TestBuildProfileNotFound(t *testing.T) {
	ds := sampleDataset(t)

	_, err := BuildProfile(ds, "Atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCountryNotFound))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Atlantis", nf.Country)
}

func TestBuildProfileSeriesOrdering(t *testing.T) {
	ds := sampleDataset(t)
	for _, c := range ds.Countries() {
		p, err := BuildProfile(ds, c)
		require.NoError(t, err)

		years := map[int]struct{}{}
		for _, r := range ds.Rows() {
			if r.Country == c {
				years[r.Year] = struct{}{}
			}
		}
		assert.Len(t, p.CountrySeries, len(years), c)
		for i := 1; i < len(p.CountrySeries); i++ {
			assert.Less(t, p.CountrySeries[i-1].Year, p.CountrySeries[i].Year, c)
		}
		assert.Equal(t, p.Latest.CPI-p.First.CPI, p.Delta, c)
	}
}

func TestRegionSeriesAveragesContinentPeers(t *testing.T) {
	ds := sampleDataset(t)

	p, err := BuildProfile(ds, "Brazil")
	require.NoError(t, err)

	// Americas: 2020 -> (38+67)/2, 2023 -> (36+66)/2
	assert.Equal(t, []YearValue{{2020, 52.5}, {2023, 51}}, p.RegionSeries)
	assert.Equal(t, p.RegionSeries, RegionMeans(ds, "Americas"))
}

func TestRegionMeansUnknownContinent(t *testing.T) {
	ds := sampleDataset(t)
	assert.Empty(t, RegionMeans(ds, "Oceania"))
}
