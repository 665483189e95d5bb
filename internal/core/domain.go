package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type (
	// Observation is one country-year row of the tracker.
	Observation struct {
		Country      string
		Continent    string
		Year         int
		CPI          float64
		PressFreedom Metric
		GDPPerCapita Metric
		HDI          Metric
	}

	// Dataset is the immutable collection of observations loaded at startup.
	Dataset struct {
		rows       []Observation
		latestYear int
		byCountry  map[string][]int // indexes into rows, ascending by year
	}
)

var (
	ErrEmptyCountry         = errors.New("empty country")
	ErrEmptyContinent       = errors.New("empty continent")
	ErrInvalidYear          = errors.New("invalid year")
	ErrInvalidCPI           = errors.New("invalid CPI score")
	ErrDuplicateObservation = errors.New("duplicate country-year observation")
	ErrCountryNotFound      = errors.New("country not found")
)

// NotFoundError reports a country with no observations.
type NotFoundError struct {
	Country string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no observations for country %q", e.Country)
}

func (e *NotFoundError) Unwrap() error { return ErrCountryNotFound }

func (o Observation) Validate() error {
	if strings.TrimSpace(o.Country) == "" {
		return ErrEmptyCountry
	}
	if strings.TrimSpace(o.Continent) == "" {
		return ErrEmptyContinent
	}
	if o.Year < 1900 || o.Year > 2200 {
		return ErrInvalidYear
	}
	if o.CPI < 0 || o.CPI > 100 {
		return ErrInvalidCPI
	}
	return nil
}

// Complete reports whether every optional indicator is present.
func (o Observation) Complete() bool {
	return o.PressFreedom.Valid && o.GDPPerCapita.Valid && o.HDI.Valid
}

// NewDataset validates rows and indexes them by country. Row order is kept.
func NewDataset(rows []Observation) (*Dataset, error) {
	ds := &Dataset{
		rows:      make([]Observation, len(rows)),
		byCountry: make(map[string][]int),
	}
	copy(ds.rows, rows)

	type key struct {
		country string
		year    int
	}
	seen := make(map[key]struct{}, len(rows))
	for i, r := range ds.rows {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("row %d (%s %d): %w", i+1, r.Country, r.Year, err)
		}
		k := key{r.Country, r.Year}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("row %d (%s %d): %w", i+1, r.Country, r.Year, ErrDuplicateObservation)
		}
		seen[k] = struct{}{}
		ds.byCountry[r.Country] = append(ds.byCountry[r.Country], i)
		if r.Year > ds.latestYear {
			ds.latestYear = r.Year
		}
	}
	for _, idx := range ds.byCountry {
		sort.SliceStable(idx, func(a, b int) bool { return ds.rows[idx[a]].Year < ds.rows[idx[b]].Year })
	}
	return ds, nil
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.rows) }

// Rows returns a copy of all observations in load order.
func (d *Dataset) Rows() []Observation {
	out := make([]Observation, len(d.rows))
	copy(out, d.rows)
	return out
}

// LatestYear is the maximum year present, 0 for an empty dataset.
func (d *Dataset) LatestYear() int { return d.latestYear }

// Countries returns every country name, sorted.
func (d *Dataset) Countries() []string {
	out := make([]string, 0, len(d.byCountry))
	for c := range d.byCountry {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// HasCountry reports whether the country has at least one observation.
func (d *Dataset) HasCountry(name string) bool {
	return len(d.byCountry[name]) > 0
}

// Continents returns the continents present in the latest year, sorted.
func (d *Dataset) Continents() []string {
	set := make(map[string]struct{})
	for _, r := range d.rows {
		if r.Year == d.latestYear {
			set[r.Continent] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// CountrySeries returns the observations of one country ordered by year.
func (d *Dataset) CountrySeries(name string) []Observation {
	idx := d.byCountry[name]
	out := make([]Observation, len(idx))
	for i, j := range idx {
		out[i] = d.rows[j]
	}
	return out
}

// Latest returns the latest-year rows whose continent is selected.
// An empty selection yields an empty result.
func (d *Dataset) Latest(continents []string) []Observation {
	if len(continents) == 0 {
		return nil
	}
	sel := make(map[string]struct{}, len(continents))
	for _, c := range continents {
		sel[c] = struct{}{}
	}
	var out []Observation
	for _, r := range d.rows {
		if r.Year != d.latestYear {
			continue
		}
		if _, ok := sel[r.Continent]; ok {
			out = append(out, r)
		}
	}
	return out
}
