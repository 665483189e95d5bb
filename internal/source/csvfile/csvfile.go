// Package csvfile reads the tracker dataset from a CSV file.
package csvfile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"cpitracker/internal/core"
	"cpitracker/internal/source"
)

// missing markers turned into NaN cells by the dataframe loader
var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "-"}

type Reader struct {
	path string
}

var (
	_ source.Reader    = (*Reader)(nil)
	_ source.Describer = (*Reader)(nil)
)

func New(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) Describe() string { return r.path }

// ReadObservations parses the whole file.
func (r *Reader) ReadObservations(ctx context.Context) ([]core.Observation, source.Report, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, source.Report{}, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, source.Report{}, err
	}
	rows, rep, err := Parse(f)
	rep.Source = r.path
	return rows, rep, err
}

// Parse reads CSV content with a header row. Every column is loaded as text
// and converted by the shared table parser.
func Parse(in io.Reader) ([]core.Observation, source.Report, error) {
	df := dataframe.ReadCSV(in,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, source.Report{}, fmt.Errorf("parse csv: %w", df.Err)
	}

	header := df.Names()
	table := make([][]string, df.Nrow())
	for i := range table {
		table[i] = make([]string, len(header))
	}
	for j, name := range header {
		col := df.Col(name)
		nan := col.IsNaN()
		for i, v := range col.Records() {
			if !nan[i] {
				table[i][j] = v
			}
		}
	}
	return source.ParseTable(header, table)
}
