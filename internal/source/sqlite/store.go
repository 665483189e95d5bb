// Package sqlite keeps tracker observations in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cpitracker/internal/core"
	"cpitracker/internal/source"
)

type Store struct {
	db   *sql.DB
	path string
}

var (
	_ source.Reader    = (*Store)(nil)
	_ source.Describer = (*Store)(nil)
)

// Open opens (creating if needed) the database and applies migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: dbPath}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Describe() string { return s.path }

const selectObservations = `
SELECT country, continent, year, cpi_score, press_freedom_score, gdp_per_capita, hdi
FROM observations
ORDER BY country, year`

// ReadObservations returns every stored row ordered by country and year.
func (s *Store) ReadObservations(ctx context.Context) ([]core.Observation, source.Report, error) {
	rep := source.Report{Source: s.path}
	rows, err := s.db.QueryContext(ctx, selectObservations)
	if err != nil {
		return nil, rep, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var out []core.Observation
	for rows.Next() {
		var (
			o               core.Observation
			press, gdp, hdi sql.NullFloat64
		)
		if err := rows.Scan(&o.Country, &o.Continent, &o.Year, &o.CPI, &press, &gdp, &hdi); err != nil {
			return nil, rep, fmt.Errorf("scan observation: %w", err)
		}
		o.PressFreedom = fromNull(press)
		o.GDPPerCapita = fromNull(gdp)
		o.HDI = fromNull(hdi)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, rep, fmt.Errorf("iterate observations: %w", err)
	}
	rep.Rows = len(out)
	return out, rep, nil
}

// Replace swaps the stored dataset for rows in a single transaction.
func (s *Store) Replace(ctx context.Context, rows []core.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM observations`); err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO observations (country, continent, year, cpi_score, press_freedom_score, gdp_per_capita, hdi)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range rows {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("%s %d: %w", o.Country, o.Year, err)
		}
		if _, err := stmt.ExecContext(ctx, o.Country, o.Continent, o.Year, o.CPI,
			toNull(o.PressFreedom), toNull(o.GDPPerCapita), toNull(o.HDI)); err != nil {
			return fmt.Errorf("insert %s %d: %w", o.Country, o.Year, err)
		}
	}
	return tx.Commit()
}

func fromNull(n sql.NullFloat64) core.Metric {
	if !n.Valid {
		return core.Missing()
	}
	return core.Some(n.Float64)
}

func toNull(m core.Metric) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Valid}
}
