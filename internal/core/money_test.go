package core

import (
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
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"12.345", "12.345", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestRoundCentsHalfUp(t *testing.T) {
	cases := map[string]string{
		"1.005":    "1.01",
		"1.004":    "1",
		"69.23076": "69.23",
		"4.615384": "4.62",
		"2.5":      "2.5",
	}
	for in, want := range cases {
		got := RoundCents(decimal.RequireFromString(in))
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("RoundCents(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("1538.4615")); got != "1538.46" {
		t.Fatalf("FormatAmount = %q", got)
	}
	if got := FormatAmount(decimal.Zero); got != "0.00" {
		t.Fatalf("FormatAmount(0) = %q", got)
	}
}

func TestSumAmounts(t *testing.T) {
	payments := []PaymentRecord{
		{Amount: decimal.RequireFromString("10.005")},
		{Amount: decimal.RequireFromString("0.005")},
	}
	if got := SumAmounts(payments); !got.Equal(decimal.RequireFromString("10.01")) {
		t.Fatalf("SumAmounts = %s", got)
	}
	if got := SumAmounts(nil); !got.IsZero() {
		t.Fatalf("SumAmounts(nil) = %s", got)
	}
}
