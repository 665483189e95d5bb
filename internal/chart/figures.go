package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
)

var (
	countryColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	regionColor  = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}
)

// History draws a country's CPI over time against its continent mean.
func History(w io.Writer, p core.Profile) error {
	if len(p.CountrySeries) == 0 {
		return ErrNoData
	}
	plt := newPlot(fmt.Sprintf("CPI history: %s vs %s mean", p.Country, p.Latest.Continent), "Year", "CPI score")
	plt.Y.Min, plt.Y.Max = 0, 100
	plt.X.Tick.Marker = yearTicks{}

	country, err := plotter.NewLine(toXYs(p.CountrySeries))
	if err != nil {
		return fmt.Errorf("country line: %w", err)
	}
	country.Color = countryColor
	country.Width = vg.Points(2)

	points, err := plotter.NewScatter(toXYs(p.CountrySeries))
	if err != nil {
		return fmt.Errorf("country points: %w", err)
	}
	points.GlyphStyle.Color = countryColor
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	points.GlyphStyle.Radius = vg.Points(3)

	plt.Add(country, points)
	plt.Legend.Add(p.Country, country)

	if len(p.RegionSeries) > 0 {
		region, err := plotter.NewLine(toXYs(p.RegionSeries))
		if err != nil {
			return fmt.Errorf("region line: %w", err)
		}
		region.Color = regionColor
		region.Width = vg.Points(1.5)
		region.Dashes = []vg.Length{vg.Points(2), vg.Points(3)}
		plt.Add(region)
		plt.Legend.Add(p.Latest.Continent+" mean", region)
	}
	plt.Legend.Top = true
	return writePNG(w, plt)
}

// Correlation draws press freedom against CPI. Marker size follows GDP per
// capita and colour follows HDI.
func Correlation(w io.Writer, c core.Correlation) error {
	if len(c.Points) == 0 {
		return ErrNoData
	}
	title := "Press freedom vs CPI"
	if !math.IsNaN(c.R) {
		title = fmt.Sprintf("%s (r = %.2f)", title, c.R)
	}
	plt := newPlot(title, "Press freedom score", "CPI score")

	xys := make(plotter.XYs, len(c.Points))
	gdpMax, hdiMin, hdiMax := 0.0, math.Inf(1), math.Inf(-1)
	for i, pt := range c.Points {
		xys[i] = plotter.XY{X: pt.PressFreedom, Y: pt.CPI}
		gdpMax = math.Max(gdpMax, pt.GDPPerCapita)
		hdiMin = math.Min(hdiMin, pt.HDI)
		hdiMax = math.Max(hdiMax, pt.HDI)
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		pt := c.Points[i]
		r := 3.0
		if gdpMax > 0 {
			r += 9 * math.Sqrt(math.Max(pt.GDPPerCapita, 0)/gdpMax)
		}
		return draw.GlyphStyle{
			Color:  sequential(pt.HDI, hdiMin, hdiMax),
			Radius: vg.Points(r),
			Shape:  draw.CircleGlyph{},
		}
	}
	plt.Add(sc)
	return writePNG(w, plt)
}

// Clusters draws the clustered countries on the press/CPI plane, one colour per group.
func Clusters(w io.Writer, r cluster.Result) error {
	if r.Skipped || len(r.Assignments) == 0 {
		return ErrNoData
	}
	plt := newPlot(fmt.Sprintf("Country clusters (k = %d)", r.K), "Press freedom score", "CPI score")

	for label := 0; label < r.K; label++ {
		var xys plotter.XYs
		for _, a := range r.Assignments {
			if a.Label == label {
				xys = append(xys, plotter.XY{X: a.Observation.PressFreedom.Value, Y: a.Observation.CPI})
			}
		}
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("cluster %d: %w", label, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(label)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(5)
		plt.Add(sc)
		plt.Legend.Add(fmt.Sprintf("Cluster %d", label), sc)
	}
	plt.Legend.Top = true
	return writePNG(w, plt)
}

func toXYs(series []core.YearValue) plotter.XYs {
	xys := make(plotter.XYs, len(series))
	for i, v := range series {
		xys[i] = plotter.XY{X: float64(v.Year), Y: v.Value}
	}
	return xys
}

// yearTicks labels whole years only.
type yearTicks struct{}

func (yearTicks) Ticks(min, max float64) []plot.Tick {
	lo, hi := int(math.Ceil(min)), int(math.Floor(max))
	step := 1
	if span := hi - lo; span > 12 {
		step = int(math.Ceil(float64(span) / 12))
	}
	var ticks []plot.Tick
	for y := lo; y <= hi; y += step {
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: fmt.Sprint(y)})
	}
	return ticks
}
