package http

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
	"cpitracker/internal/log"
)

// Cluster outcomes reported to metrics.
const (
	outcomeComputed = "computed"
	outcomeSkipped  = "skipped"
	outcomeError    = "error"
)

// The dataset never changes after load, so cache keys only describe the query.

func (s *Server) profile(ctx context.Context, ds *core.Dataset, country string) (core.Profile, error) {
	return s.profiles.Get(ctx, country, func(context.Context) (core.Profile, error) {
		return core.BuildProfile(ds, country)
	})
}

func (s *Server) clusterRun(ctx context.Context, ds *core.Dataset, k int, continents []string) (cluster.Result, error) {
	key := fmt.Sprintf("%d:%s", k, selectionKey(continents))
	return s.clusters.Get(ctx, key, func(ctx context.Context) (cluster.Result, error) {
		res, err := cluster.Run(ds.Latest(continents), k, s.clusterOpts)
		if err != nil {
			s.metrics.ClusterRun(k, outcomeError)
			return res, err
		}
		outcome := outcomeComputed
		if res.Skipped {
			outcome = outcomeSkipped
		}
		s.metrics.ClusterRun(k, outcome)
		s.structured.LogClusterRun(ctx, k, res.Considered, res.Skipped, continents)
		return res, nil
	})
}

// chartPNG renders a figure once per key and serves the cached bytes after.
func (s *Server) chartPNG(ctx context.Context, kind, key string, draw func(io.Writer) error) ([]byte, error) {
	return s.charts.Get(ctx, kind+":"+key, func(ctx context.Context) ([]byte, error) {
		var buf bytes.Buffer
		if err := draw(&buf); err != nil {
			return nil, err
		}
		s.metrics.ChartRendered(kind)
		s.logger.DebugContext(ctx, "Chart rendered",
			log.FieldOperation, log.OpRender,
			"chart", kind,
			log.FieldCacheKey, key,
			"bytes", buf.Len())
		return buf.Bytes(), nil
	})
}

// selectedCountry picks the requested country, else the configured default
// when present, else the first country alphabetically.
func (s *Server) selectedCountry(ds *core.Dataset, requested string) string {
	if requested != "" {
		return requested
	}
	if s.defaultCountry != "" && ds.HasCountry(s.defaultCountry) {
		return s.defaultCountry
	}
	if countries := ds.Countries(); len(countries) > 0 {
		return countries[0]
	}
	return ""
}
