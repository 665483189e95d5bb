package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Metric is an optional numeric indicator. Valid is false when the source
// cell was empty or marked as missing.
type Metric struct {
	Value float64
	Valid bool
}

// NA is the display text for a missing value.
const NA = "N/A"

var ErrInvalidNumber = errors.New("invalid number")

// Some returns a present metric.
func Some(v float64) Metric { return Metric{Value: v, Valid: true} }

// Missing returns an absent metric.
func Missing() Metric { return Metric{} }

// A leading zero group ("0,760") is never a thousands grouping.
var thousandsGrouped = regexp.MustCompile(`^[+-]?[1-9]\d{0,2}(,\d{3})+(\.\d+)?$`)

// ParseMetric reads a numeric cell. Empty cells and the usual missing markers
// (NA, N/A, NaN, null, "-") give a missing metric with no error.
// Comma groups of three digits are thousands separators ("10,043",
// "1,234.5"); any other lone comma is a decimal separator ("12,5", "0,760").
func ParseMetric(s string) (Metric, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "none", "-":
		return Missing(), nil
	}
	switch {
	case thousandsGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1 && !strings.Contains(s, "."):
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return Missing(), fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	if math.IsNaN(v) {
		return Missing(), nil
	}
	return Some(v), nil
}

// ParseYear reads a year cell, tolerating a trailing ".0" from spreadsheet exports.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	return int(f), nil
}

// Format renders the metric with one decimal, or N/A.
func (m Metric) Format() string { return m.FormatFixed(1) }

// FormatFixed renders the metric with the given number of decimals, or N/A.
func (m Metric) FormatFixed(decimals int) string {
	if !m.Valid {
		return NA
	}
	return strconv.FormatFloat(m.Value, 'f', decimals, 64)
}

// FormatUSD renders the metric as whole US dollars with thousands separators.
func (m Metric) FormatUSD() string {
	if !m.Valid {
		return NA
	}
	return "US$ " + groupThousands(int64(math.Round(m.Value)))
}

// FormatMean renders a mean with one decimal; NaN renders as an em dash placeholder.
func FormatMean(v float64) string {
	if math.IsNaN(v) {
		return "—"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatDelta renders a signed delta with the reference year, e.g. "+7.0 (vs 2020)".
func FormatDelta(delta float64, since int) string {
	return fmt.Sprintf("%+.1f (vs %d)", delta, since)
}

func groupThousands(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
