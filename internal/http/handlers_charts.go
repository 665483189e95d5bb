package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cpitracker/internal/chart"
	"cpitracker/internal/core"
	"cpitracker/internal/log"
)

// handleHistoryChart serves the CPI history of ?country= against its
// continent mean.
func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	country := strings.TrimSpace(r.URL.Query().Get("country"))
	if err := s.validate.Struct(countryQuery{Country: country}); err != nil {
		http.Error(w, fieldErrors(err)[0].Message, http.StatusBadRequest)
		return
	}
	ds, err := s.dataset(ctx)
	if err != nil {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}

	p, err := s.profile(ctx, ds, country)
	if errors.Is(err, core.ErrCountryNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.chartFailed(w, r, "history", err)
		return
	}
	png, err := s.chartPNG(ctx, "history", country, func(w io.Writer) error {
		return chart.History(w, p)
	})
	s.writePNG(w, r, "history", png, err)
}

// handleCorrelationChart serves the press freedom / CPI scatter; 204 when no
// row of the view is complete.
func (s *Server) handleCorrelationChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.dataset(ctx)
	if err != nil {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}
	selected := parseContinents(r.URL.Query(), ds.Continents())
	c := core.Correlate(ds.Latest(selected))

	png, err := s.chartPNG(ctx, "correlation", selectionKey(selected), func(w io.Writer) error {
		return chart.Correlation(w, c)
	})
	s.writePNG(w, r, "correlation", png, err)
}

// handleClustersChart serves the clustering scatter; 204 when clustering
// was skipped for lack of complete rows.
func (s *Server) handleClustersChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	k, err := parseIntParam(q, "k", defaultK)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(clusterQuery{K: k}); err != nil {
		http.Error(w, fieldErrors(err)[0].Message, http.StatusUnprocessableEntity)
		return
	}
	ds, err := s.dataset(ctx)
	if err != nil {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}
	selected := parseContinents(q, ds.Continents())

	res, err := s.clusterRun(ctx, ds, k, selected)
	if err != nil {
		s.chartFailed(w, r, "clusters", err)
		return
	}
	png, err := s.chartPNG(ctx, "clusters", strconv.Itoa(k)+":"+selectionKey(selected), func(w io.Writer) error {
		return chart.Clusters(w, res)
	})
	s.writePNG(w, r, "clusters", png, err)
}

func (s *Server) writePNG(w http.ResponseWriter, r *http.Request, kind string, png []byte, err error) {
	if errors.Is(err, chart.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.chartFailed(w, r, kind, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

func (s *Server) chartFailed(w http.ResponseWriter, r *http.Request, kind string, err error) {
	fields := log.NewFields().WithErrorType(log.ErrorTypeInternal)
	fields["chart"] = kind
	s.structured.LogError(r.Context(), "Chart rendering failed", err, log.ComponentChart, log.OpRender, fields)
	http.Error(w, "chart unavailable", http.StatusInternalServerError)
}
