package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cpitracker/internal/config"
	"cpitracker/internal/log"
	"cpitracker/internal/source"
	"cpitracker/internal/source/csvfile"
	"cpitracker/internal/source/google"
	"cpitracker/internal/source/sqlite"
	"cpitracker/internal/source/xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case FileBackend:
		return f.createFileBackend(ctx, cfg)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	path, err := source.Locate(cfg.DatasetPaths)
	if err != nil {
		return nil, err
	}

	var res *BackendResult
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		res = &BackendResult{Reader: csvfile.New(path)}
	case ".xlsx":
		res = &BackendResult{Reader: xlsx.New(path, cfg.XLSXSheet)}
	case ".db", ".sqlite", ".sqlite3":
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite dataset: %w", err)
		}
		res = &BackendResult{Reader: store, Cleanup: store.Close}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f.logger.InfoContext(ctx, "Initialized file backend", log.FieldSource, path)
	return res, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	cli, err := google.New(ctx, cfg.Google)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend", log.FieldSource, cli.Describe())
	return &BackendResult{Reader: cli}, nil
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		DatasetPaths: appConfig.DatasetPaths,
		XLSXSheet:    appConfig.XLSXSheet,
		Google: google.Config{
			SpreadsheetID:      appConfig.GoogleSpreadsheetID,
			Range:              appConfig.GoogleSheetRange,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
		},
	}, nil
}
