package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
)

var allContinents = []string{"Africa", "Americas", "Asia", "Europe"}

func TestParseContinents(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no parameters selects everything", "", allContinents},
		{"single continent", "continent=Asia", []string{"Asia"}},
		{"keeps available order", "continent=Europe&continent=Africa", []string{"Africa", "Europe"}},
		{"ignores unknown continents", "continent=Atlantis&continent=Asia", []string{"Asia"}},
		{"filter marker alone is an empty selection", "filter=1", []string{}},
		{"filter marker with continents", "filter=1&continent=Americas", []string{"Americas"}},
		{"trims whitespace", "continent=+Asia+", []string{"Asia"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, parseContinents(q, allContinents))
		})
	}
}

func TestSelectionParamsRoundTrip(t *testing.T) {
	for _, sel := range [][]string{{}, {"Asia"}, allContinents} {
		got := parseContinents(selectionParams(sel), allContinents)
		assert.Equal(t, sel, got)
	}
	assert.Equal(t, "continent=Asia&filter=1", selectionParams([]string{"Asia"}).Encode())
}

func TestParseIntParam(t *testing.T) {
	q := url.Values{"k": {"4"}, "bad": {"four"}, "blank": {"  "}}

	n, err := parseIntParam(q, "k", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = parseIntParam(q, "missing", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = parseIntParam(q, "blank", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = parseIntParam(q, "bad", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotInteger)
	assert.Contains(t, err.Error(), "bad")
}

func TestClampK(t *testing.T) {
	assert.Equal(t, cluster.MinK, clampK(-1))
	assert.Equal(t, cluster.MinK, clampK(1))
	assert.Equal(t, 3, clampK(3))
	assert.Equal(t, cluster.MaxK, clampK(9))
}

func TestFieldErrors(t *testing.T) {
	v := newValidator()

	errs := fieldErrors(v.Struct(countryQuery{}))
	require.Len(t, errs, 1)
	assert.Equal(t, FieldError{Field: "country", Message: "country is required"}, errs[0])

	errs = fieldErrors(v.Struct(clusterQuery{K: 1}))
	require.Len(t, errs, 1)
	assert.Equal(t, "k must be at least 2", errs[0].Message)

	errs = fieldErrors(v.Struct(latestQuery{Top: 51}))
	require.Len(t, errs, 1)
	assert.Equal(t, "top must be at most 50", errs[0].Message)

	assert.NoError(t, v.Struct(clusterQuery{K: 5}))
}

func TestChartURLAndFilterOptions(t *testing.T) {
	assert.Equal(t, "/charts/x.png", string(chartURL("/charts/x.png", nil)))
	assert.Equal(t, "/charts/x.png?continent=Asia&filter=1",
		string(chartURL("/charts/x.png", selectionParams([]string{"Asia"}))))

	opts := filterOptions(allContinents, []string{"Asia"})
	require.Len(t, opts, 4)
	assert.False(t, opts[0].Checked)
	assert.True(t, opts[2].Checked)
}

func TestClusterMembersGroupsByLabel(t *testing.T) {
	res := cluster.Result{
		K:     2,
		Sizes: []int{2, 1},
		Assignments: []cluster.Assignment{
			{Observation: core.Observation{Country: "Peru", CPI: 33}, Label: 0},
			{Observation: core.Observation{Country: "Norway", CPI: 84}, Label: 1},
			{Observation: core.Observation{Country: "Bolivia", CPI: 29}, Label: 0},
		},
	}
	sizes, members := clusterMembers(res)
	assert.Equal(t, []clusterSize{{Label: 0, Size: 2}, {Label: 1, Size: 1}}, sizes)
	require.Len(t, members, 3)
	assert.Equal(t, "Bolivia", members[0].Country)
	assert.Equal(t, "Peru", members[1].Country)
	assert.Equal(t, "Norway", members[2].Country)
	assert.Equal(t, core.NA, members[0].HDI)
}
