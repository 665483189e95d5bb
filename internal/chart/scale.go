package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// CPI runs from 0 (highly corrupt) to 100 (very clean).
const (
	cpiMin = 0.0
	cpiMax = 100.0
)

var (
	neutral = color.RGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff}

	// blue at the low end, red at the high end
	blueRed = func() palette.ColorMap {
		m := moreland.SmoothBlueRed()
		m.SetMin(cpiMin)
		m.SetMax(cpiMax)
		return m
	}()
)

// RdBu maps a CPI score to a diverging red-to-blue colour: red for corrupt,
// blue for clean. Values are clamped to 0..100; NaN gives a neutral grey.
func RdBu(cpi float64) color.Color {
	if math.IsNaN(cpi) {
		return neutral
	}
	v := math.Max(cpiMin, math.Min(cpiMax, cpi))
	c, err := blueRed.At(cpiMax - v + cpiMin)
	if err != nil {
		return neutral
	}
	return c
}

// RdBuHex is RdBu formatted for CSS.
func RdBuHex(cpi float64) string { return Hex(RdBu(cpi)) }

// sequential maps v within [lo, hi] onto a perceptually uniform ramp.
func sequential(v, lo, hi float64) color.Color {
	m := moreland.Kindlmann()
	if hi <= lo {
		hi = lo + 1
	}
	m.SetMin(lo)
	m.SetMax(hi)
	c, err := m.At(math.Max(lo, math.Min(hi, v)))
	if err != nil {
		return neutral
	}
	return c
}
