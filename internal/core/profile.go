package core

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// YearValue is one point of a yearly series.
type YearValue struct {
	Year  int
	Value float64
}

// Profile is the drill-down view of a single country.
type Profile struct {
	Country       string
	First         Observation
	Latest        Observation
	Delta         float64
	CountrySeries []YearValue
	RegionSeries  []YearValue
}

// DeltaLabel renders the CPI change since the first recorded year.
func (p Profile) DeltaLabel() string {
	return FormatDelta(p.Delta, p.First.Year)
}

// BuildProfile aggregates a country's history and the yearly CPI mean of its
// continent. The region is taken from the latest observation and averaged over
// the whole dataset.
func BuildProfile(ds *Dataset, country string) (Profile, error) {
	series := ds.CountrySeries(country)
	if len(series) == 0 {
		return Profile{}, &NotFoundError{Country: country}
	}
	first, latest := series[0], series[len(series)-1]

	p := Profile{
		Country:       country,
		First:         first,
		Latest:        latest,
		Delta:         latest.CPI - first.CPI,
		CountrySeries: make([]YearValue, len(series)),
		RegionSeries:  RegionMeans(ds, latest.Continent),
	}
	for i, o := range series {
		p.CountrySeries[i] = YearValue{Year: o.Year, Value: o.CPI}
	}
	return p, nil
}

// RegionMeans returns the mean CPI per year over every row of the continent,
// ascending by year.
func RegionMeans(ds *Dataset, continent string) []YearValue {
	byYear := make(map[int][]float64)
	for _, r := range ds.rows {
		if r.Continent == continent {
			byYear[r.Year] = append(byYear[r.Year], r.CPI)
		}
	}
	out := make([]YearValue, 0, len(byYear))
	for y, vals := range byYear {
		out = append(out, YearValue{Year: y, Value: stat.Mean(vals, nil)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
