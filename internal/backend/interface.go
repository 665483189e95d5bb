package backend

import (
	"context"

	"cpitracker/internal/source"
	"cpitracker/internal/source/google"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the dataset reader and optional cleanup function
type BackendResult struct {
	Reader  source.Reader
	Cleanup CleanupFunc
}

// Factory creates dataset readers based on configuration
type Factory interface {
	// CreateBackend creates a reader for the configured source
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend: candidate paths, first existing wins
	DatasetPaths []string
	XLSXSheet    string

	// Google Sheets backend
	Google google.Config
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
