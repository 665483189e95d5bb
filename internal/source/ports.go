// Package source defines where tracker observations come from and turns raw
// tables into validated rows.
package source

import (
	"context"
	"fmt"

	"cpitracker/internal/core"
)

// Ports for inbound data adapters.
type (
	// Reader loads every observation of a dataset.
	Reader interface {
		// ReadObservations returns the parsed rows and a report of what was skipped.
		ReadObservations(ctx context.Context) ([]core.Observation, Report, error)
	}

	// Describer names a reader for logs, e.g. the file path or spreadsheet id.
	Describer interface {
		Describe() string
	}
)

// maxProblems caps how many row problems a report keeps verbatim.
const maxProblems = 20

// Report summarises a load.
type Report struct {
	Source     string
	Rows       int
	Skipped    int
	Duplicates int
	Problems   []string
}

func (r *Report) problem(format string, args ...any) {
	if len(r.Problems) < maxProblems {
		r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
	}
}
