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
		{"0.01", "0.01", true},
		{"1.005", "1.01", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("888.488")
	if got := ToCents(d); got != 88849 {
		t.Fatalf("ToCents = %d, want 88849", got)
	}
	if got := FromCents(88849); !got.Equal(decimal.RequireFromString("888.49")) {
		t.Fatalf("FromCents = %s", got)
	}
	if got := FromFloat(1000.0000001); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("FromFloat = %s", got)
	}
}

func TestWithinTolerance(t *testing.T) {
	a := decimal.RequireFromString("100.00")
	if !WithinTolerance(a, decimal.RequireFromString("100.01")) {
		t.Fatalf("one cent apart should be tolerated")
	}
	if WithinTolerance(a, decimal.RequireFromString("100.02")) {
		t.Fatalf("two cents apart should not be tolerated")
	}
}
