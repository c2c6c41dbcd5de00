package normalizer

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    civil.Date
		wantErr bool
	}{
		{input: "01/12/2023", want: civil.Date{Year: 2023, Month: time.December, Day: 1}},
		{input: "1-2-2024", want: civil.Date{Year: 2024, Month: time.February, Day: 1}},
		{input: "15.03.24", want: civil.Date{Year: 2024, Month: time.March, Day: 15}},
		{input: " 31/01/2024 ", want: civil.Date{Year: 2024, Month: time.January, Day: 31}},
		{input: "2024-01-05", want: civil.Date{Year: 2024, Month: time.January, Day: 5}},
		{input: "05/01/2024 10:22", want: civil.Date{Year: 2024, Month: time.January, Day: 5}},
		{input: "2024-01-05T00:00:00Z", want: civil.Date{Year: 2024, Month: time.January, Day: 5}},
		{input: "31/02/2024", wantErr: true},
		{input: "13/13/2024", wantErr: true},
		{input: "01/12/203", wantErr: true},
		{input: "yesterday", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "-15.99", want: 15.99},
		{input: "-15,99", want: 15.99},
		{input: " 42 ", want: 42},
		{input: "1 234,50", want: 1234.50},
		{input: "+7,5", want: 7.5},
		{input: "0", want: 0},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
		{input: "NaN", wantErr: true},
		{input: "-Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAmount_NeverNegative(t *testing.T) {
	for _, in := range []string{"-0.01", "-100", "-9999,99", "3.14", "+2"} {
		got, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error = %v", in, err)
		}
		if got < 0 {
			t.Errorf("ParseAmount(%q) = %v, want >= 0", in, got)
		}
	}
}

func TestParseAmountToken(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"-15,99", 15.99},
		{"15.99", 15.99},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"-1 234,56", 1234.56},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmountToken(tt.input)
			if err != nil {
				t.Fatalf("parseAmountToken(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseAmountToken(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
