package core

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the headline indicators of a filtered view.
// Means are NaN when there is nothing to average.
type Summary struct {
	Count            int
	MeanCPI          float64
	MeanPressFreedom float64
}

// Summarize computes KPIs over rows; missing press scores are ignored.
func Summarize(rows []Observation) Summary {
	s := Summary{Count: len(rows), MeanCPI: math.NaN(), MeanPressFreedom: math.NaN()}
	if len(rows) == 0 {
		return s
	}
	cpi := make([]float64, 0, len(rows))
	var press []float64
	for _, r := range rows {
		cpi = append(cpi, r.CPI)
		if r.PressFreedom.Valid {
			press = append(press, r.PressFreedom.Value)
		}
	}
	s.MeanCPI = stat.Mean(cpi, nil)
	if len(press) > 0 {
		s.MeanPressFreedom = stat.Mean(press, nil)
	}
	return s
}

// Ranking is the top and bottom of a view ordered by CPI.
type Ranking struct {
	Top    []Observation
	Bottom []Observation
}

// Rank returns the n highest and n lowest CPI rows. Top is descending,
// Bottom ascending; ties are broken by country name.
func Rank(rows []Observation, n int) Ranking {
	if n <= 0 || len(rows) == 0 {
		return Ranking{}
	}
	sorted := make([]Observation, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CPI != sorted[j].CPI {
			return sorted[i].CPI > sorted[j].CPI
		}
		return sorted[i].Country < sorted[j].Country
	})
	m := min(n, len(sorted))
	r := Ranking{
		Top:    append([]Observation(nil), sorted[:m]...),
		Bottom: make([]Observation, 0, m),
	}
	asc := make([]Observation, len(sorted))
	copy(asc, sorted)
	sort.SliceStable(asc, func(i, j int) bool {
		if asc[i].CPI != asc[j].CPI {
			return asc[i].CPI < asc[j].CPI
		}
		return asc[i].Country < asc[j].Country
	})
	r.Bottom = append(r.Bottom, asc[:m]...)
	return r
}

// CorrelationPoint is one complete row placed on the press/CPI plane.
type CorrelationPoint struct {
	Country      string
	Continent    string
	PressFreedom float64
	CPI          float64
	GDPPerCapita float64
	HDI          float64
}

// Correlation holds scatter points and the Pearson coefficient between
// press freedom and CPI. R is NaN with fewer than two points.
type Correlation struct {
	Points []CorrelationPoint
	R      float64
}

// Correlate keeps rows that have every indicator and measures how press
// freedom tracks CPI.
func Correlate(rows []Observation) Correlation {
	c := Correlation{R: math.NaN()}
	var xs, ys []float64
	for _, r := range rows {
		if !r.Complete() {
			continue
		}
		c.Points = append(c.Points, CorrelationPoint{
			Country:      r.Country,
			Continent:    r.Continent,
			PressFreedom: r.PressFreedom.Value,
			CPI:          r.CPI,
			GDPPerCapita: r.GDPPerCapita.Value,
			HDI:          r.HDI.Value,
		})
		xs = append(xs, r.PressFreedom.Value)
		ys = append(ys, r.CPI)
	}
	if len(xs) >= 2 {
		c.R = stat.Correlation(xs, ys, nil)
	}
	return c
}
