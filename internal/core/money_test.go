package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"dot separator", "12.34", 1234, false},
		{"comma separator", "12,34", 1234, false},
		{"integer", "280", 28000, false},
		{"single fractional digit", "12.3", 1230, false},
		{"third digit rounds down", "12.344", 1234, false},
		{"third digit rounds up", "12.345", 1235, false},
		{"zero allowed", "0", 0, false},
		{"leading dot", ".50", 50, false},
		{"whitespace trimmed", " 99.99 ", 9999, false},
		{"empty", "", 0, true},
		{"negative rejected", "-5", 0, true},
		{"plus sign rejected", "+5", 0, true},
		{"letters rejected", "12a.34", 0, true},
		{"two dots rejected", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{100000, "1000.00"},
		{5, "0.05"},
		{-1234, "-12.34"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
