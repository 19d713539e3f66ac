package usage

import (
	"regexp"
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

func TestFormatMagnitude(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{999, "999"},
		{1000, "1.0K"},
		{1049, "1.0K"},
		{1050, "1.1K"},
		{1250, "1.3K"},
		{12345, "12.3K"},
		{999949, "999.9K"},
		{999950, "1000.0K"},
		{999999, "1000.0K"},
		{1000000, "1.0M"},
		{1550000, "1.6M"},
		{999999999, "1000.0M"},
		{1000000000, "1.0B"},
		{3700000000, "3.7B"},
		{18446744073709551615, "18446744073.7B"},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatUint(tt.n, 10), func(t *testing.T) {
			if got := FormatMagnitude(tt.n); got != tt.want {
				t.Errorf("FormatMagnitude(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatMagnitude_Brackets(t *testing.T) {
	plain := regexp.MustCompile(`^\d+$`)
	scaled := regexp.MustCompile(`^\d+\.\d[KMB]$`)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64().Draw(t, "n")
		got := FormatMagnitude(n)

		var wantSuffix string
		switch {
		case n >= 1_000_000_000:
			wantSuffix = "B"
		case n >= 1_000_000:
			wantSuffix = "M"
		case n >= 1_000:
			wantSuffix = "K"
		}

		if wantSuffix == "" {
			if !plain.MatchString(got) || got != strconv.FormatUint(n, 10) {
				t.Fatalf("FormatMagnitude(%d) = %q, want exact integer", n, got)
			}
			return
		}

		if !scaled.MatchString(got) {
			t.Fatalf("FormatMagnitude(%d) = %q, want one decimal and a suffix", n, got)
		}
		if got[len(got)-1:] != wantSuffix {
			t.Fatalf("FormatMagnitude(%d) = %q, want suffix %s", n, got, wantSuffix)
		}
	})
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
		{18446744073709551615, "18,446,744,073,709,551,615"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatCostCents(t *testing.T) {
	tests := []struct {
		cents float64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1234, "$12.34"},
	}

	for _, tt := range tests {
		if got := FormatCostCents(tt.cents); got != tt.want {
			t.Errorf("FormatCostCents(%v) = %q, want %q", tt.cents, got, tt.want)
		}
	}

	if got := FormatCostUSD(2.5); got != "$2.50" {
		t.Errorf("FormatCostUSD(2.5) = %q, want $2.50", got)
	}
}

func TestFormatModelName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-opus-4-5", "Opus 4 5"},
		{"claude-sonnet-4-5-20250929", "Sonnet 4 5 20250929"},
		{"claude-3-5-haiku", "3 5 Haiku"},
		{"gpt-4o", "Gpt 4o"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatModelName(tt.model); got != tt.want {
			t.Errorf("FormatModelName(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}
