// Package memory serves observations held in process, for tests and demos.
package memory

import (
	"context"
	"sync"

	"cpitracker/internal/core"
	"cpitracker/internal/source"
)

type Store struct {
	mu    sync.Mutex
	items []core.Observation
	err   error
	reads int
}

var _ source.Reader = (*Store)(nil)

func New(rows []core.Observation) *Store {
	return &Store{items: append([]core.Observation(nil), rows...)}
}

// Failing returns a store whose reads always fail with err.
func Failing(err error) *Store {
	return &Store{err: err}
}

// ReadObservations returns a copy of the stored rows.
func (s *Store) ReadObservations(_ context.Context) ([]core.Observation, source.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, source.Report{Source: s.Describe()}, s.err
	}
	out := append([]core.Observation(nil), s.items...)
	return out, source.Report{Source: s.Describe(), Rows: len(out)}, nil
}

// Reads counts calls to ReadObservations.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Store) Describe() string { return "memory" }

// Sample returns a small multi-continent dataset spanning two years.
func Sample() []core.Observation {
	full := func(country, continent string, year int, cpi, press, gdp, hdi float64) core.Observation {
		return core.Observation{
			Country: country, Continent: continent, Year: year, CPI: cpi,
			PressFreedom: core.Some(press), GDPPerCapita: core.Some(gdp), HDI: core.Some(hdi),
		}
	}
	return []core.Observation{
		full("Brazil", "Americas", 2020, 38, 65.9, 6797, 0.758),
		full("Brazil", "Americas", 2023, 36, 58.6, 10043, 0.760),
		full("Argentina", "Americas", 2023, 37, 72.1, 13731, 0.849),
		full("Canada", "Americas", 2023, 76, 81.7, 53372, 0.935),
		full("Chile", "Americas", 2023, 66, 60.1, 17068, 0.860),
		full("Mexico", "Americas", 2023, 31, 45.6, 13926, 0.781),
		full("Denmark", "Europe", 2020, 88, 91.9, 61063, 0.948),
		full("Denmark", "Europe", 2023, 90, 89.5, 67790, 0.952),
		full("Germany", "Europe", 2023, 78, 81.9, 52746, 0.950),
		full("Hungary", "Europe", 2023, 42, 62.9, 22142, 0.851),
		full("Italy", "Europe", 2023, 56, 69.8, 38373, 0.906),
		full("Kenya", "Africa", 2023, 31, 54.9, 1950, 0.601),
		full("Nigeria", "Africa", 2023, 25, 45.3, 1597, 0.548),
		full("South Africa", "Africa", 2023, 41, 78.6, 6023, 0.717),
		full("Japan", "Asia", 2023, 73, 63.9, 33834, 0.920),
		{Country: "Somalia", Continent: "Africa", Year: 2023, CPI: 11},
	}
}
