package http

import (
	"fmt"
	"html/template"
	"math"
	"net/url"
	"sort"

	"cpitracker/internal/chart"
	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
)

type page struct {
	Title      string
	Active     string
	LatestYear int
}

type option struct {
	Name    string
	Checked bool
}

type kpi struct {
	Label string
	Value string
}

type tile struct {
	Country   string
	Continent string
	CPI       string
	Color     string
}

type rankRow struct {
	Position  int
	Country   string
	Continent string
	CPI       string
	Press     string
}

type globalView struct {
	page
	Filter []option
	KPIs   []kpi
	Tiles  []tile
	Top    []rankRow
	Bottom []rankRow
}

type historyRow struct {
	Year   int
	CPI    string
	Region string
}

type profileView struct {
	Country   string
	Continent string
	Year      int
	KPIs      []kpi
	History   []historyRow
	ChartURL  template.URL
}

type countryView struct {
	page
	Countries []option
	Selected  string
	NotFound  bool
	Profile   *profileView
}

type correlationRow struct {
	Country   string
	Continent string
	Press     string
	CPI       string
	GDP       string
	HDI       string
}

type correlationView struct {
	page
	Filter   []option
	Points   int
	R        string
	ChartURL template.URL
	Rows     []correlationRow
}

type clusterSize struct {
	Label int
	Size  int
}

type memberRow struct {
	Label     int
	Country   string
	Continent string
	CPI       string
	Press     string
	HDI       string
	GDP       string
}

type clustersView struct {
	page
	Filter     []option
	K          int
	KOptions   []int
	Ran        bool
	Skipped    bool
	Considered int
	MinRows    int
	Sizes      []clusterSize
	Members    []memberRow
	ChartURL   template.URL
}

func filterOptions(available, selected []string) []option {
	on := make(map[string]bool, len(selected))
	for _, c := range selected {
		on[c] = true
	}
	out := make([]option, len(available))
	for i, c := range available {
		out[i] = option{Name: c, Checked: on[c]}
	}
	return out
}

func chartURL(path string, params url.Values) template.URL {
	if len(params) == 0 {
		return template.URL(path)
	}
	return template.URL(path + "?" + params.Encode())
}

func formatCPI(v float64) string { return fmt.Sprintf("%.1f", v) }

func formatR(r float64) string {
	if math.IsNaN(r) {
		return core.FormatMean(r)
	}
	return fmt.Sprintf("%.2f", r)
}

func summaryKPIs(s core.Summary) []kpi {
	return []kpi{
		{Label: "Countries", Value: fmt.Sprint(s.Count)},
		{Label: "Mean CPI", Value: core.FormatMean(s.MeanCPI)},
		{Label: "Mean press freedom", Value: core.FormatMean(s.MeanPressFreedom)},
	}
}

// heatTiles orders the view by continent then country for the heat grid.
func heatTiles(rows []core.Observation) []tile {
	sorted := append([]core.Observation(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Continent != sorted[j].Continent {
			return sorted[i].Continent < sorted[j].Continent
		}
		return sorted[i].Country < sorted[j].Country
	})
	out := make([]tile, len(sorted))
	for i, o := range sorted {
		out[i] = tile{Country: o.Country, Continent: o.Continent, CPI: formatCPI(o.CPI), Color: chart.RdBuHex(o.CPI)}
	}
	return out
}

func rankRows(rows []core.Observation) []rankRow {
	out := make([]rankRow, len(rows))
	for i, o := range rows {
		out[i] = rankRow{
			Position:  i + 1,
			Country:   o.Country,
			Continent: o.Continent,
			CPI:       formatCPI(o.CPI),
			Press:     o.PressFreedom.Format(),
		}
	}
	return out
}

func newProfileView(p core.Profile) *profileView {
	latest := p.Latest
	region := make(map[int]float64, len(p.RegionSeries))
	for _, v := range p.RegionSeries {
		region[v.Year] = v.Value
	}
	history := make([]historyRow, len(p.CountrySeries))
	for i, v := range p.CountrySeries {
		row := historyRow{Year: v.Year, CPI: formatCPI(v.Value), Region: core.NA}
		if m, ok := region[v.Year]; ok {
			row.Region = formatCPI(m)
		}
		history[i] = row
	}
	return &profileView{
		Country:   p.Country,
		Continent: latest.Continent,
		Year:      latest.Year,
		KPIs: []kpi{
			{Label: fmt.Sprintf("CPI %d", latest.Year), Value: formatCPI(latest.CPI)},
			{Label: "Change", Value: p.DeltaLabel()},
			{Label: "Press freedom", Value: latest.PressFreedom.Format()},
			{Label: "GDP per capita", Value: latest.GDPPerCapita.FormatUSD()},
			{Label: "HDI", Value: latest.HDI.FormatFixed(3)},
		},
		History:  history,
		ChartURL: chartURL("/charts/history.png", url.Values{"country": {p.Country}}),
	}
}

func correlationRows(c core.Correlation) []correlationRow {
	pts := append([]core.CorrelationPoint(nil), c.Points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].CPI != pts[j].CPI {
			return pts[i].CPI > pts[j].CPI
		}
		return pts[i].Country < pts[j].Country
	})
	out := make([]correlationRow, len(pts))
	for i, p := range pts {
		out[i] = correlationRow{
			Country:   p.Country,
			Continent: p.Continent,
			Press:     core.Some(p.PressFreedom).Format(),
			CPI:       formatCPI(p.CPI),
			GDP:       core.Some(p.GDPPerCapita).FormatUSD(),
			HDI:       core.Some(p.HDI).FormatFixed(3),
		}
	}
	return out
}

// clusterMembers lists members grouped by label, countries alphabetical
// within a group.
func clusterMembers(r cluster.Result) ([]clusterSize, []memberRow) {
	sizes := make([]clusterSize, len(r.Sizes))
	for i, n := range r.Sizes {
		sizes[i] = clusterSize{Label: i, Size: n}
	}
	members := make([]memberRow, len(r.Assignments))
	for i, a := range r.Assignments {
		o := a.Observation
		members[i] = memberRow{
			Label:     a.Label,
			Country:   o.Country,
			Continent: o.Continent,
			CPI:       formatCPI(o.CPI),
			Press:     o.PressFreedom.Format(),
			HDI:       o.HDI.FormatFixed(3),
			GDP:       o.GDPPerCapita.FormatUSD(),
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Label != members[j].Label {
			return members[i].Label < members[j].Label
		}
		return members[i].Country < members[j].Country
	})
	return sizes, members
}

func kOptions() []int {
	out := make([]int, 0, cluster.MaxK-cluster.MinK+1)
	for k := cluster.MinK; k <= cluster.MaxK; k++ {
		out = append(out, k)
	}
	return out
}
