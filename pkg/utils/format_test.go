package utils

import "testing"

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{187.5, "$187.50"},
		{1234.56, "$1,234.56"},
		{1234567.891, "$1,234,567.89"},
		{-42.1, "-$42.10"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(3.456); got != "+3.46%" {
		t.Errorf("FormatPercent(3.456) = %s", got)
	}
	if got := FormatPercent(-1.2); got != "-1.20%" {
		t.Errorf("FormatPercent(-1.2) = %s", got)
	}
	if got := FormatPercent(0); got != "0.00%" {
		t.Errorf("FormatPercent(0) = %s", got)
	}
}

func TestFormatQuantity(t *testing.T) {
	if got := FormatQuantity(1000000); got != "1,000,000" {
		t.Errorf("FormatQuantity(1000000) = %s", got)
	}
	if got := FormatQuantity(-2500); got != "-2,500" {
		t.Errorf("FormatQuantity(-2500) = %s", got)
	}
}
