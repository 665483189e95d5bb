package http

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"cpitracker/internal/cluster"
)

// filterMarker is set by the continent form so that unticking every box
// selects nothing instead of falling back to all continents.
const filterMarker = "filter"

var errNotInteger = errors.New("must be an integer")

// FieldError describes one invalid query parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type countryQuery struct {
	Country string `query:"country" validate:"required,max=128"`
}

type clusterQuery struct {
	K int `query:"k" validate:"min=2,max=5"`
}

type latestQuery struct {
	Top int `query:"top" validate:"min=1,max=50"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// fieldErrors flattens a validator error into API details.
func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: formatValidationError(fe)})
	}
	return out
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// parseContinents returns the continents selected in the query, in the order
// of available. Without a continent parameter or the filter marker every
// continent is selected; with either, only the listed ones are, possibly none.
func parseContinents(q url.Values, available []string) []string {
	picked, explicit := q["continent"]
	if !explicit && q.Get(filterMarker) != "1" {
		return append([]string(nil), available...)
	}
	want := make(map[string]bool, len(picked))
	for _, c := range picked {
		want[strings.TrimSpace(c)] = true
	}
	out := make([]string, 0, len(picked))
	for _, c := range available {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}

// selectionParams encodes a continent selection so that it round-trips
// through parseContinents, including the empty selection.
func selectionParams(selected []string) url.Values {
	v := url.Values{filterMarker: {"1"}}
	for _, c := range selected {
		v.Add("continent", c)
	}
	return v
}

// parseIntParam reads an integer query parameter, returning def when absent.
func parseIntParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %w", name, errNotInteger)
	}
	return n, nil
}

// clampK keeps a slider value inside the supported cluster counts.
func clampK(k int) int {
	return max(cluster.MinK, min(cluster.MaxK, k))
}

// selectionKey identifies a continent selection in cache keys.
func selectionKey(selected []string) string {
	return strings.Join(selected, "|")
}
