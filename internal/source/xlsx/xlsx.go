// Package xlsx reads the tracker dataset from an Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"cpitracker/internal/core"
	"cpitracker/internal/source"
)

// headerScanRows bounds how far down a sheet the header row may sit.
const headerScanRows = 10

type Reader struct {
	path  string
	sheet string
}

var (
	_ source.Reader    = (*Reader)(nil)
	_ source.Describer = (*Reader)(nil)
)

// New reads path. An empty sheet name picks the first sheet carrying the
// tracker header.
func New(path, sheet string) *Reader {
	return &Reader{path: path, sheet: sheet}
}

func (r *Reader) Describe() string {
	if r.sheet == "" {
		return r.path
	}
	return r.path + "#" + r.sheet
}

func (r *Reader) ReadObservations(ctx context.Context) ([]core.Observation, source.Report, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, source.Report{}, fmt.Errorf("open workbook %s: %w", r.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if r.sheet != "" {
		sheets = []string{r.sheet}
	}

	var lastErr error = source.ErrMissingColumn
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, source.Report{}, err
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, source.Report{}, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for h := 0; h < len(rows) && h < headerScanRows; h++ {
			if _, err := source.ResolveColumns(rows[h]); err != nil {
				lastErr = err
				continue
			}
			obs, rep, err := source.ParseTable(rows[h], rows[h+1:])
			rep.Source = r.path + "#" + sheet
			return obs, rep, err
		}
	}
	if errors.Is(lastErr, source.ErrMissingColumn) {
		return nil, source.Report{}, fmt.Errorf("workbook %s: no sheet with tracker header: %w", r.path, lastErr)
	}
	return nil, source.Report{}, lastErr
}
