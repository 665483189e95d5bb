package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	rows := []Observation{
		{Country: "A", Continent: "X", Year: 2023, CPI: 40, PressFreedom: Some(60)},
		{Country: "B", Continent: "X", Year: 2023, CPI: 60},
		{Country: "C", Continent: "X", Year: 2023, CPI: 80, PressFreedom: Some(80)},
	}
	s := Summarize(rows)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 60, s.MeanCPI, 1e-9)
	assert.InDelta(t, 70, s.MeanPressFreedom, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Count)
	assert.True(t, math.IsNaN(s.MeanCPI))
	assert.True(t, math.IsNaN(s.MeanPressFreedom))
	assert.Equal(t, "—", FormatMean(s.MeanCPI))
}

func TestRank(t *testing.T) {
	rows := []Observation{
		obs("Delta", "X", 2023, 50),
		obs("Alpha", "X", 2023, 50),
		obs("Bravo", "X", 2023, 90),
		obs("Charlie", "X", 2023, 10),
	}
	r := Rank(rows, 2)
	require.Len(t, r.Top, 2)
	require.Len(t, r.Bottom, 2)
	assert.Equal(t, "Bravo", r.Top[0].Country)
	assert.Equal(t, "Alpha", r.Top[1].Country)
	assert.Equal(t, "Charlie", r.Bottom[0].Country)
	assert.Equal(t, "Alpha", r.Bottom[1].Country)

	all := Rank(rows, 10)
	assert.Len(t, all.Top, 4)
	assert.Empty(t, Rank(nil, 10).Top)
	assert.Empty(t, Rank(rows, 0).Bottom)
}

func TestCorrelate(t *testing.T) {
	full := func(c string, press, cpi float64) Observation {
		return Observation{Country: c, Continent: "X", Year: 2023, CPI: cpi,
			PressFreedom: Some(press), GDPPerCapita: Some(1000), HDI: Some(0.7)}
	}
	rows := []Observation{
		full("A", 10, 20),
		full("B", 20, 40),
		full("C", 30, 60),
		obs("D", "X", 2023, 99), // incomplete
	}
	c := Correlate(rows)
	require.Len(t, c.Points, 3)
	assert.InDelta(t, 1.0, c.R, 1e-9)

	empty := Correlate([]Observation{obs("D", "X", 2023, 99)})
	assert.Empty(t, empty.Points)
	assert.True(t, math.IsNaN(empty.R))
}
