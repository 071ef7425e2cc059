package forms

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePercentStoresFraction(t *testing.T) {
	got, err := ParsePercent("1.5")
	if err != nil {
		t.Fatalf("ParsePercent failed: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("0.015")) {
		t.Fatalf("expected 0.015, got %s", got)
	}
}

func TestDisplayPercentRendersTwoDecimals(t *testing.T) {
	cases := map[string]string{
		"0.015":  "1.50",
		"0.2":    "20.00",
		"-0.005": "-0.50",
		"0":      "0.00",
	}
	for stored, want := range cases {
		d := decimal.RequireFromString(stored)
		if got := DisplayPercent(d); got != want {
			t.Fatalf("DisplayPercent(%s) = %s, want %s", stored, got, want)
		}
	}
}

func TestPercentRoundTripDoesNotDrift(t *testing.T) {
	value := decimal.RequireFromString("0.015")
	for i := 0; i < 100; i++ {
		shown := DisplayPercent(value)
		parsed, err := ParsePercent(shown)
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		value = parsed
	}
	if DisplayPercent(value) != "1.50" {
		t.Fatalf("drift after repeated cycles: %s", value)
	}
	if !value.Equal(decimal.RequireFromString("0.015")) {
		t.Fatalf("stored value drifted: %s", value)
	}
}

func TestParsePercentRejectsGarbage(t *testing.T) {
	if _, err := ParsePercent("not-a-number"); err == nil {
		t.Fatal("expected parse error")
	}
}
