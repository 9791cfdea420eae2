package core

import (
	"errors"
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
		{"200.5", "200.5", true},
		{" -50 ", "-50", true},
		{"+7", "7", true},
		{"1e3", "1000", true},
		{"0", "0", true},
		{"abc", "", false},
		{"", "", false},
		{"1.2.3", "", false},
		{"NaN", "", false},
		{"-inf", "", false},
		{"1e30", "1e30", true},
		{"-0.000001", "-0.000001", true},
		{"1e400000", "", false},
		{"1e-400000", "", false},
		{"1e31", "", false},
		{"12345678901234567890123456789012345678901", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("%q expected ErrInvalidNumber, got %v", tc.in, err)
		}
	}
}

func TestParseNonNegative(t *testing.T) {
	fallback := decimal.NewFromInt(1)
	if v, err := ParseNonNegative("  ", fallback); err != nil || !v.Equal(fallback) {
		t.Fatalf("empty should give fallback, got %s %v", v, err)
	}
	if _, err := ParseNonNegative("-1", fallback); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := ParseNonNegative("x", fallback); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
	if v, err := ParseNonNegative("12.5", fallback); err != nil || !v.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected %s %v", v, err)
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(decimal.NewFromInt(3000), "USD"); got != "$3,000.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMoney(decimal.RequireFromString("0.005"), "usd"); got != "$0.01" {
		t.Fatalf("rounding: got %q", got)
	}
	if got := FormatMoney(decimal.NewFromInt(12), "???"); got != "$12.00" {
		t.Fatalf("unknown currency should fall back to USD, got %q", got)
	}
}

func TestFormatMoney_BeyondInt64(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"1e20", "1e20", "USD", "$100,000,000,000,000,000,000.00"},
		{"negative", "-123456789012345678.456", "USD", "-$123,456,789,012,345,678.46"},
		{"just below the limit", "92233720368547758.07", "USD", "$92,233,720,368,547,758.07"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatMoney(decimal.RequireFromString(tc.amount), tc.currency); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(decimal.NewFromInt(30)); got != "30.00%" {
		t.Fatalf("got %q", got)
	}
	if got := FormatPercent(decimal.RequireFromString("33.333333")); got != "33.33%" {
		t.Fatalf("got %q", got)
	}
}
