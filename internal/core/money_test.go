package core

import "testing"

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"200", 20000, false},
		{"0.01", 1, false},
		{"12.345", 1234, false}, // rounds down
		{"12.346", 1235, false}, // rounds up
		{"  7.5 ", 750, false},
		{".50", 50, false},
		{"", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"12a", 0, true},
		{"92233720368547757.99", 9223372036854775799, false},
		{"92233720368547758.08", 0, true}, // iv*100+8 would wrap int64
		{"92233720368547759", 0, true},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmountCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmountCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAmountCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBalanceCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"150", 15000, false},
		{"-150", -15000, false},
		{"+10.50", 1050, false},
		{"-0.01", -1, false},
		{"0", 0, false},
		{"", 0, true},
		{"--5", 0, true},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBalanceCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBalanceCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBalanceCents(%q) = %d, want %d", tt.input, got, tt.want)
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
		{-20000, "-200.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-1, "-0.01"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
