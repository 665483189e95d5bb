package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveRequest("/country", http.MethodGet, 200, 15*time.Millisecond)
	m.ObserveRequest("/country", http.MethodGet, 200, 5*time.Millisecond)
	m.CacheHit("profile")
	m.CacheMiss("profile")
	m.CacheMiss("profile")
	m.ClusterRun(3, "computed")
	m.ChartRendered("history")
	m.DatasetLoaded(1200, 4, 2023)
	m.Rejected("rate_limit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/country", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("profile")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses.WithLabelValues("profile")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clusterRuns.WithLabelValues("3", "computed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("rate_limit")))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.datasetRows))
	assert.Equal(t, 2023.0, testutil.ToFloat64(m.latestYear))
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.DatasetLoaded(10, 0, 2023)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "cpitracker_dataset_rows 10"))
	assert.Contains(t, body, "go_goroutines")
}
