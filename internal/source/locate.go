package source

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrDatasetNotFound = errors.New("dataset file not found")

// DefaultCandidates are searched relative to the working directory.
var DefaultCandidates = []string{
	"datasets/dataset_dashboard.csv",
	"../datasets/dataset_dashboard.csv",
	"dataset_dashboard.csv",
}

// Locate returns the first candidate that exists as a regular file.
func Locate(candidates []string) (string, error) {
	for _, p := range candidates {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: searched %s", ErrDatasetNotFound, strings.Join(candidates, ", "))
}
