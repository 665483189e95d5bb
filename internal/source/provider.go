package source

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"cpitracker/internal/core"
	"cpitracker/internal/log"
)

// Provider loads the dataset once and hands out the same immutable value to
// every caller. A failed load is remembered and returned on every call.
type Provider struct {
	reader Reader
	logger *log.Logger
	onLoad func(*core.Dataset, Report)

	once   sync.Once
	loaded atomic.Bool
	ds     *core.Dataset
	report Report
	err    error
}

// NewProvider wraps a reader. onLoad, when non-nil, runs after a successful load.
func NewProvider(r Reader, logger *log.Logger, onLoad func(*core.Dataset, Report)) *Provider {
	if logger == nil {
		logger = log.Discard()
	}
	return &Provider{reader: r, logger: logger.WithComponent(log.ComponentDataset), onLoad: onLoad}
}

// Dataset returns the loaded dataset, reading the source on first use.
func (p *Provider) Dataset(ctx context.Context) (*core.Dataset, error) {
	p.once.Do(func() { p.load(ctx) })
	return p.ds, p.err
}

// Loaded reports whether a dataset is available.
func (p *Provider) Loaded() bool {
	return p.loaded.Load()
}

// Report returns the last load report.
func (p *Provider) Report() Report { return p.report }

func (p *Provider) load(ctx context.Context) {
	rows, rep, err := p.reader.ReadObservations(ctx)
	if d, ok := p.reader.(Describer); ok && rep.Source == "" {
		rep.Source = d.Describe()
	}
	p.report = rep
	if err != nil {
		p.err = fmt.Errorf("read dataset: %w", err)
		return
	}
	ds, err := core.NewDataset(rows)
	if err != nil {
		p.err = fmt.Errorf("build dataset: %w", err)
		return
	}
	p.ds = ds
	p.loaded.Store(true)

	for _, msg := range rep.Problems {
		p.logger.WarnContext(ctx, "Dataset row ignored", log.FieldSource, rep.Source, "detail", msg)
	}
	log.NewStructuredLogger(p.logger).LogDatasetLoaded(ctx, rep.Source, ds.Len(), rep.Skipped, rep.Duplicates, ds.LatestYear())
	if p.onLoad != nil {
		p.onLoad(ds, rep)
	}
}
