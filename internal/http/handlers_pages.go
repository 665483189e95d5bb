package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
	"cpitracker/internal/log"
)

// handleGlobal renders the latest-year heat grid, KPIs and ranking.
func (s *Server) handleGlobal(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r.Context())
	if err != nil {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}

	available := ds.Continents()
	selected := parseContinents(r.URL.Query(), available)
	rows := ds.Latest(selected)
	ranking := core.Rank(rows, rankingSize)

	s.renderPage(w, r, "global.html", globalView{
		page:   page{Title: "Global overview", Active: "global", LatestYear: ds.LatestYear()},
		Filter: filterOptions(available, selected),
		KPIs:   summaryKPIs(core.Summarize(rows)),
		Tiles:  heatTiles(rows),
		Top:    rankRows(ranking.Top),
		Bottom: rankRows(ranking.Bottom),
	})
}

// handleCountry renders the drill-down for one country. An unknown country
// renders a notice and nothing else.
func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.dataset(ctx)
	if err != nil {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}

	country := s.selectedCountry(ds, strings.TrimSpace(r.URL.Query().Get("country")))
	view := countryView{
		page:     page{Title: "Country profile", Active: "country", LatestYear: ds.LatestYear()},
		Selected: country,
	}
	for _, c := range ds.Countries() {
		view.Countries = append(view.Countries, option{Name: c, Checked: c == country})
	}

	p, err := s.profile(ctx, ds, country)
	switch {
	case errors.Is(err, core.ErrCountryNotFound):
		log.FromContext(ctx).WarnContext(ctx, "Country not found",
			log.NewFields().WithCountry(country).WithOperation(log.OpProfile).WithErrorType(log.ErrorTypeNotFound).ToSlice()...)
		view.NotFound = true
	case err != nil:
		s.structured.LogError(ctx, "Profile failed", err, log.ComponentHTTP, log.OpProfile, log.NewFields().WithCountry(country))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	default:
		view.Profile = newProfileView(p)
	}
	s.renderPage(w, r, "country.html", view)
}

// handleCorrelation renders the press freedom / CPI scatter of the view.
func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r.Context())
	if err != nil {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}

	available := ds.Continents()
	selected := parseContinents(r.URL.Query(), available)
	c := core.Correlate(ds.Latest(selected))

	s.renderPage(w, r, "correlation.html", correlationView{
		page:     page{Title: "Press freedom and corruption", Active: "correlation", LatestYear: ds.LatestYear()},
		Filter:   filterOptions(available, selected),
		Points:   len(c.Points),
		R:        formatR(c.R),
		ChartURL: chartURL("/charts/correlation.png", selectionParams(selected)),
		Rows:     correlationRows(c),
	})
}

// handleClusters renders the clustering form; the run flag triggers the
// computation. Out-of-range k values are clamped.
func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.dataset(ctx)
	if err != nil {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	available := ds.Continents()
	selected := parseContinents(q, available)
	k, err := parseIntParam(q, "k", defaultK)
	if err != nil {
		k = defaultK
	}
	k = clampK(k)

	view := clustersView{
		page:     page{Title: "Country clusters", Active: "clusters", LatestYear: ds.LatestYear()},
		Filter:   filterOptions(available, selected),
		K:        k,
		KOptions: kOptions(),
		Ran:      q.Get("run") == "1",
	}
	if view.Ran {
		res, err := s.clusterRun(ctx, ds, k, selected)
		if err != nil {
			s.structured.LogError(ctx, "Clustering failed", err, log.ComponentCluster, log.OpCluster,
				log.NewFields().WithContinents(selected))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		view.Skipped = res.Skipped
		view.Considered = res.Considered
		view.MinRows = s.minRows()
		view.Sizes, view.Members = clusterMembers(res)
		params := selectionParams(selected)
		params.Set("k", strconv.Itoa(k))
		view.ChartURL = chartURL("/charts/clusters.png", params)
	}
	s.renderPage(w, r, "clusters.html", view)
}

// renderPage executes a template into a buffer so that failures produce a
// clean 500 instead of a half-written page.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	ctx := r.Context()
	if s.templates == nil {
		s.logger.ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(ctx, "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithErrorType(log.ErrorTypeInternal))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) minRows() int {
	if s.clusterOpts.MinRows > 0 {
		return s.clusterOpts.MinRows
	}
	return cluster.DefaultMinRows
}
