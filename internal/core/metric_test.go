package core

import (
	"testing"
)

func TestParseMetric(t *testing.T) {
	cases := []struct {
		in    string
		value float64
		valid bool
		ok    bool
	}{
		{"42", 42, true, true},
		{" 42.5 ", 42.5, true, true},
		{"42,5", 42.5, true, true},
		{"12,345.6", 12345.6, true, true},
		{"10,043", 10043, true, true},
		{"1,234,567", 1234567, true, true},
		{"-2,500", -2500, true, true},
		{"0,760", 0.76, true, true},
		{"1,5", 1.5, true, true},
		{"12,34", 12.34, true, true},
		{"1,2,3", 0, false, false},
		{"", 0, false, true},
		{"NaN", 0, false, true},
		{"N/A", 0, false, true},
		{"-", 0, false, true},
		{"abc", 0, false, false},
		{"1e400", 0, false, false},
	}
	for _, tc := range cases {
		m, err := ParseMetric(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if m.Valid != tc.valid || m.Value != tc.value {
			t.Fatalf("%q: got %+v", tc.in, m)
		}
	}
}

func TestParseYear(t *testing.T) {
	for in, want := range map[string]int{"2023": 2023, " 2020 ": 2020, "2019.0": 2019} {
		got, err := ParseYear(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %d err=%v", in, got, err)
		}
	}
	for _, in := range []string{"", "year", "2019.5"} {
		if _, err := ParseYear(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestMetricFormatting(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{Some(35.25).Format(), "35.2"},
		{Missing().Format(), "N/A"},
		{Some(0.7604).FormatFixed(3), "0.760"},
		{Missing().FormatFixed(3), "N/A"},
		{Some(8917.6).FormatUSD(), "US$ 8,918"},
		{Some(123).FormatUSD(), "US$ 123"},
		{Some(1234567).FormatUSD(), "US$ 1,234,567"},
		{Missing().FormatUSD(), "N/A"},
		{FormatDelta(-3, 2012), "-3.0 (vs 2012)"},
		{FormatMean(51), "51.0"},
	}
	for i, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("case %d: got %q want %q", i, tc.got, tc.want)
		}
	}
}
