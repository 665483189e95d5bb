package http

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
	"cpitracker/internal/log"
)

// JSON has no NaN, so missing values are encoded as null.

type observationJSON struct {
	Country      string   `json:"country"`
	Continent    string   `json:"continent"`
	Year         int      `json:"year"`
	CPI          float64  `json:"cpi"`
	PressFreedom *float64 `json:"press_freedom"`
	GDPPerCapita *float64 `json:"gdp_per_capita"`
	HDI          *float64 `json:"hdi"`
}

type yearValueJSON struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

type profileResponse struct {
	Country       string          `json:"country"`
	Continent     string          `json:"continent"`
	First         observationJSON `json:"first"`
	Latest        observationJSON `json:"latest"`
	Delta         float64         `json:"delta"`
	DeltaLabel    string          `json:"delta_label"`
	CountrySeries []yearValueJSON `json:"country_series"`
	RegionSeries  []yearValueJSON `json:"region_series"`
}

type summaryJSON struct {
	Count            int      `json:"count"`
	MeanCPI          *float64 `json:"mean_cpi"`
	MeanPressFreedom *float64 `json:"mean_press_freedom"`
}

type latestResponse struct {
	Year       int               `json:"year"`
	Continents []string          `json:"continents"`
	Summary    summaryJSON       `json:"summary"`
	Rows       []observationJSON `json:"rows"`
	Top        []observationJSON `json:"top"`
	Bottom     []observationJSON `json:"bottom"`
}

type assignmentJSON struct {
	observationJSON
	Label int `json:"label"`
}

type clustersResponse struct {
	K           int              `json:"k"`
	Continents  []string         `json:"continents"`
	Considered  int              `json:"considered"`
	MinRows     int              `json:"min_rows"`
	Skipped     bool             `json:"skipped"`
	Sizes       []int            `json:"sizes"`
	Inertia     *float64         `json:"inertia"`
	Assignments []assignmentJSON `json:"assignments"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func metricJSON(m core.Metric) *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

func toObservationJSON(o core.Observation) observationJSON {
	return observationJSON{
		Country:      o.Country,
		Continent:    o.Continent,
		Year:         o.Year,
		CPI:          o.CPI,
		PressFreedom: metricJSON(o.PressFreedom),
		GDPPerCapita: metricJSON(o.GDPPerCapita),
		HDI:          metricJSON(o.HDI),
	}
}

func toObservationsJSON(rows []core.Observation) []observationJSON {
	out := make([]observationJSON, len(rows))
	for i, o := range rows {
		out[i] = toObservationJSON(o)
	}
	return out
}

func toSeriesJSON(series []core.YearValue) []yearValueJSON {
	out := make([]yearValueJSON, len(series))
	for i, v := range series {
		out[i] = yearValueJSON{Year: v.Year, Value: v.Value}
	}
	return out
}

// apiDataset loads the dataset or writes a 503 error body.
func (s *Server) apiDataset(w http.ResponseWriter, r *http.Request) (*core.Dataset, bool) {
	ds, err := s.dataset(r.Context())
	if err != nil {
		s.renderError(w, r, newAPIError(http.StatusServiceUnavailable, CodeDatasetUnavailable, "dataset unavailable", nil))
		return nil, false
	}
	return ds, true
}

func (s *Server) apiCountries(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.apiDataset(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]any{
		"countries": ds.Countries(),
		"default":   s.selectedCountry(ds, ""),
	})
}

func (s *Server) apiContinents(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.apiDataset(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]any{
		"continents":  ds.Continents(),
		"latest_year": ds.LatestYear(),
	})
}

func (s *Server) apiProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := countryQuery{Country: strings.TrimSpace(r.URL.Query().Get("country"))}
	if err := s.validate.Struct(q); err != nil {
		s.renderError(w, r, newAPIError(http.StatusBadRequest, CodeValidationFailed, "invalid query parameters", fieldErrors(err)))
		return
	}
	ds, ok := s.apiDataset(w, r)
	if !ok {
		return
	}

	p, err := s.profile(ctx, ds, q.Country)
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		s.renderError(w, r, newAPIError(http.StatusNotFound, CodeCountryNotFound, nf.Error(),
			map[string]string{"country": nf.Country}))
		return
	}
	if err != nil {
		s.structured.LogError(ctx, "Profile failed", err, log.ComponentHTTP, log.OpProfile, log.NewFields().WithCountry(q.Country))
		s.renderError(w, r, newAPIError(http.StatusInternalServerError, CodeInternal, "profile failed", nil))
		return
	}

	render.JSON(w, r, profileResponse{
		Country:       p.Country,
		Continent:     p.Latest.Continent,
		First:         toObservationJSON(p.First),
		Latest:        toObservationJSON(p.Latest),
		Delta:         p.Delta,
		DeltaLabel:    p.DeltaLabel(),
		CountrySeries: toSeriesJSON(p.CountrySeries),
		RegionSeries:  toSeriesJSON(p.RegionSeries),
	})
}

func (s *Server) apiLatest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	top, err := parseIntParam(query, "top", rankingSize)
	if err != nil {
		s.renderError(w, r, newAPIError(http.StatusBadRequest, CodeInvalidParameter, err.Error(), nil))
		return
	}
	if err := s.validate.Struct(latestQuery{Top: top}); err != nil {
		s.renderError(w, r, newAPIError(http.StatusUnprocessableEntity, CodeValidationFailed, "invalid query parameters", fieldErrors(err)))
		return
	}
	ds, ok := s.apiDataset(w, r)
	if !ok {
		return
	}

	selected := parseContinents(query, ds.Continents())
	rows := ds.Latest(selected)
	sum := core.Summarize(rows)
	ranking := core.Rank(rows, top)

	render.JSON(w, r, latestResponse{
		Year:       ds.LatestYear(),
		Continents: selected,
		Summary: summaryJSON{
			Count:            sum.Count,
			MeanCPI:          nullable(sum.MeanCPI),
			MeanPressFreedom: nullable(sum.MeanPressFreedom),
		},
		Rows:   toObservationsJSON(rows),
		Top:    toObservationsJSON(ranking.Top),
		Bottom: toObservationsJSON(ranking.Bottom),
	})
}

func (s *Server) apiClusters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	k, err := parseIntParam(query, "k", defaultK)
	if err != nil {
		s.renderError(w, r, newAPIError(http.StatusBadRequest, CodeInvalidParameter, err.Error(), nil))
		return
	}
	if err := s.validate.Struct(clusterQuery{K: k}); err != nil {
		s.renderError(w, r, newAPIError(http.StatusUnprocessableEntity, CodeValidationFailed, "invalid query parameters", fieldErrors(err)))
		return
	}
	ds, ok := s.apiDataset(w, r)
	if !ok {
		return
	}

	selected := parseContinents(query, ds.Continents())
	res, err := s.clusterRun(ctx, ds, k, selected)
	if errors.Is(err, cluster.ErrInvalidK) {
		s.renderError(w, r, newAPIError(http.StatusUnprocessableEntity, CodeValidationFailed, err.Error(), nil))
		return
	}
	if err != nil {
		s.structured.LogError(ctx, "Clustering failed", err, log.ComponentCluster, log.OpCluster, log.NewFields().WithContinents(selected))
		s.renderError(w, r, newAPIError(http.StatusInternalServerError, CodeInternal, "clustering failed", nil))
		return
	}

	resp := clustersResponse{
		K:           k,
		Continents:  selected,
		Considered:  res.Considered,
		MinRows:     s.minRows(),
		Skipped:     res.Skipped,
		Sizes:       res.Sizes,
		Assignments: make([]assignmentJSON, len(res.Assignments)),
	}
	if !res.Skipped {
		resp.Inertia = nullable(res.Inertia)
	}
	if resp.Sizes == nil {
		resp.Sizes = []int{}
	}
	for i, a := range res.Assignments {
		resp.Assignments[i] = assignmentJSON{observationJSON: toObservationJSON(a.Observation), Label: a.Label}
	}
	render.JSON(w, r, resp)
}
