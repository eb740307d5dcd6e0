package format

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestFormatLocalGrouping(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"500", "$500"},
		{"55000", "$55.000"},
		{"123456", "$123.456"},
		{"1234500", "$1.234.500"},
	}
	for _, tt := range tests {
		if got := FormatLocal(dec(tt.value)); got != tt.want {
			t.Errorf("FormatLocal(%s) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatSourceCeilsWithoutSeparators(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"3", "US$3"},
		{"2.01", "US$3"},
		{"1999.5", "US$2000"},
		{"12345", "US$12345"},
	}
	for _, tt := range tests {
		if got := FormatSource(dec(tt.value)); got != tt.want {
			t.Errorf("FormatSource(%s) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatNilIsNotAvailable(t *testing.T) {
	if got := FormatLocal(nil); got != NotAvailable {
		t.Errorf("FormatLocal(nil) = %q, want %q", got, NotAvailable)
	}
	if got := FormatSource(nil); got != NotAvailable {
		t.Errorf("FormatSource(nil) = %q, want %q", got, NotAvailable)
	}
}

func TestFromFloatRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := FormatLocal(FromFloat(f)); got != NotAvailable {
			t.Errorf("FormatLocal(FromFloat(%v)) = %q, want %q", f, got, NotAvailable)
		}
	}

	if got := FormatLocal(FromFloat(55000)); got != "$55.000" {
		t.Errorf("FormatLocal(FromFloat(55000)) = %q, want $55.000", got)
	}
}

func TestCustomProfile(t *testing.T) {
	p := Profile{Symbol: "€", Grouping: false}
	if got := p.Format(dec("1234.2")); got != "€1235" {
		t.Errorf("custom profile = %q, want €1235", got)
	}
	if got := p.Format(nil); got != NotAvailable {
		t.Errorf("custom profile nil = %q, want %q", got, NotAvailable)
	}
}
