package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"15.5", "15.5", true},
		{"15,5", "15.5", true},
		{"1.234,56", "1234.56", true},
		{" R$ 2,50 ", "2.5", true},
		{"0", "0", true},
		{"-3", "-3", true},
		{"abc", "", false},
		{"1,2,3", "", false},
		{"", "", false},
		{"+7", "7", true},
		{"12.345.678,9", "12345678.9", true},
		{"1e5", "", false},
		{"1E5", "", false},
		{"1e20000000", "", false},
		{"2,5e3", "", false},
		{"+-1", "", false},
		{"1.234.567", "", false},
		{"12.34,5", "", false},
		{strings.Repeat("9", 40), "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"1", "R$ 1,00"},
		{"15.5", "R$ 15,50"},
		{"999.999", "R$ 1.000,00"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"0.005", "R$ 0,01"},
		{"-10", "-R$ 10,00"},
		{"-1234.5", "-R$ 1.234,50"},
	}
	for _, tc := range cases {
		if got := FormatBRL(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("FormatBRL(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	if got := FormatQuantity(decimal.RequireFromString("2")); got != "2" {
		t.Fatalf("got %q", got)
	}
	if got := FormatQuantity(decimal.RequireFromString("1.5")); got != "1,5" {
		t.Fatalf("got %q", got)
	}
}
