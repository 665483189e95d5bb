package source

import (
	"errors"
	"fmt"
	"strings"

	"cpitracker/internal/core"
)

var ErrMissingColumn = errors.New("missing required column")

// Column aliases accepted in headers, matched case-insensitively.
var (
	countryAliases   = []string{"Country", "País", "Pais"}
	continentAliases = []string{"Continente", "Continent", "Region"}
	yearAliases      = []string{"ano", "year", "Ano"}
	cpiAliases       = []string{"CPI_Score", "CPI", "CPI score"}
	pressAliases     = []string{"Press_Freedom_Score", "Press_Freedom", "Press Freedom Score"}
	gdpAliases       = []string{"PIB_per_Capita", "GDP_per_Capita", "GDP per capita", "GDP"}
	hdiAliases       = []string{"IDH_2023", "IDH", "HDI", "HDI_2023"}
)

// Columns holds header positions; optional columns are -1 when absent.
type Columns struct {
	Country, Continent, Year, CPI int
	Press, GDP, HDI               int
}

// ResolveColumns locates the tracker columns in a header row.
func ResolveColumns(header []string) (Columns, error) {
	c := Columns{
		Country:   indexOfAny(header, countryAliases),
		Continent: indexOfAny(header, continentAliases),
		Year:      indexOfAny(header, yearAliases),
		CPI:       indexOfAny(header, cpiAliases),
		Press:     indexOfAny(header, pressAliases),
		GDP:       indexOfAny(header, gdpAliases),
		HDI:       indexOfAny(header, hdiAliases),
	}
	var missing []string
	if c.Country == -1 {
		missing = append(missing, "Country")
	}
	if c.Continent == -1 {
		missing = append(missing, "Continente")
	}
	if c.Year == -1 {
		missing = append(missing, "ano")
	}
	if c.CPI == -1 {
		missing = append(missing, "CPI_Score")
	}
	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("%w: %s; got headers=%v", ErrMissingColumn, strings.Join(missing, ","), header)
	}
	return c, nil
}

// ParseTable converts a header plus string rows into observations. Rows with
// an unusable country, continent, year or CPI are skipped; a repeated
// (country, year) keeps the first occurrence. Both cases are counted in the report.
func ParseTable(header []string, rows [][]string) ([]core.Observation, Report, error) {
	cols, err := ResolveColumns(header)
	if err != nil {
		return nil, Report{}, err
	}
	var rep Report
	type key struct {
		country string
		year    int
	}
	seen := make(map[key]struct{}, len(rows))
	out := make([]core.Observation, 0, len(rows))

	for i, row := range rows {
		line := i + 2 // header is line 1
		if blank(row) {
			continue
		}
		o, err := cols.parseRow(row)
		if err != nil {
			rep.Skipped++
			rep.problem("line %d: %v", line, err)
			continue
		}
		k := key{o.Country, o.Year}
		if _, dup := seen[k]; dup {
			rep.Duplicates++
			rep.problem("line %d: duplicate %s %d", line, o.Country, o.Year)
			continue
		}
		seen[k] = struct{}{}
		out = append(out, o)
	}
	rep.Rows = len(out)
	return out, rep, nil
}

func (c Columns) parseRow(row []string) (core.Observation, error) {
	o := core.Observation{
		Country:   strings.TrimSpace(safeGet(row, c.Country)),
		Continent: strings.TrimSpace(safeGet(row, c.Continent)),
	}
	year, err := core.ParseYear(safeGet(row, c.Year))
	if err != nil {
		return o, err
	}
	o.Year = year

	cpi, err := core.ParseMetric(safeGet(row, c.CPI))
	if err != nil {
		return o, err
	}
	if !cpi.Valid {
		return o, core.ErrInvalidCPI
	}
	o.CPI = cpi.Value

	// optional indicators degrade to missing on bad input
	o.PressFreedom, _ = core.ParseMetric(safeGet(row, c.Press))
	o.GDPPerCapita, _ = core.ParseMetric(safeGet(row, c.GDP))
	o.HDI, _ = core.ParseMetric(safeGet(row, c.HDI))

	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

func indexOfAny(header []string, aliases []string) int {
	for _, a := range aliases {
		if i := indexOf(header, a); i != -1 {
			return i
		}
	}
	return -1
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
