// Package google reads the tracker dataset from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cpitracker/internal/core"
	"cpitracker/internal/source"
)

// DefaultRange covers the tracker columns of the first sheet.
const DefaultRange = "A:G"

// Config selects the spreadsheet and the credentials used to read it.
type Config struct {
	SpreadsheetID      string
	Range              string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// valuesGetter is the slice of the Sheets API the client needs.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type Client struct {
	values        valuesGetter
	spreadsheetID string
	rng           string
}

var (
	_ source.Reader    = (*Client)(nil)
	_ source.Describer = (*Client)(nil)
)

// New creates a Sheets reader authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(apiValues{svc: svc}, cfg), nil
}

func newClient(v valuesGetter, cfg Config) *Client {
	rng := strings.TrimSpace(cfg.Range)
	if rng == "" {
		rng = DefaultRange
	}
	return &Client{values: v, spreadsheetID: cfg.SpreadsheetID, rng: rng}
}

func (c *Client) Describe() string {
	return fmt.Sprintf("sheets:%s!%s", c.spreadsheetID, c.rng)
}

// ReadObservations fetches the range and parses it with the first row as header.
func (c *Client) ReadObservations(ctx context.Context) ([]core.Observation, source.Report, error) {
	values, err := c.values.Get(ctx, c.spreadsheetID, c.rng)
	if err != nil {
		return nil, source.Report{}, fmt.Errorf("read range %s: %w", c.rng, err)
	}
	if len(values) == 0 {
		return nil, source.Report{}, fmt.Errorf("range %s is empty: %w", c.rng, source.ErrMissingColumn)
	}
	rows := make([][]string, 0, len(values)-1)
	for _, v := range values[1:] {
		rows = append(rows, toStrings(v))
	}
	obs, rep, err := source.ParseTable(toStrings(values[0]), rows)
	rep.Source = c.Describe()
	return obs, rep, err
}

// newSheetsService initializes a read-only Sheets service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when no explicit credentials are configured.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

type apiValues struct {
	svc *gsheet.Service
}

func (a apiValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch t := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = t
		case float64:
			out[i] = fmt.Sprintf("%g", t)
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}
