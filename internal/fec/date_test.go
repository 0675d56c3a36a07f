package fec

import (
	"testing"
	"time"
)

func TestParseEcritureDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{
			name:  "valid date",
			input: "20230105",
			want:  NewDate(2023, time.January, 5),
		},
		{
			name:  "leap day",
			input: "20240229",
			want:  NewDate(2024, time.February, 29),
		},
		{
			name:    "too short",
			input:   "2023015",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   "202301055",
			wantErr: true,
		},
		{
			name:    "non-numeric",
			input:   "2023-1-5",
			wantErr: true,
		},
		{
			name:    "month out of range",
			input:   "20231305",
			wantErr: true,
		},
		{
			name:    "day out of range",
			input:   "20230230",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEcritureDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEcritureDate(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEcritureDate(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseEcritureDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateAdd(t *testing.T) {
	d := NewDate(2023, time.January, 30)

	got := d.Add(3)
	if want := NewDate(2023, time.February, 2); !got.Equal(want) {
		t.Errorf("Add(3) = %v, want %v", got, want)
	}
	if got := d.Add(0); !got.Equal(d) {
		t.Errorf("Add(0) = %v, want %v", got, d)
	}
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2023, time.January, 5)
	b := NewDate(2023, time.January, 7)

	if !a.Before(b) || b.Before(a) {
		t.Errorf("Before: want %v < %v", a, b)
	}
	if !b.After(a) || a.After(b) {
		t.Errorf("After: want %v > %v", b, a)
	}
	if a.String() != "2023-01-05" {
		t.Errorf("String() = %q, want %q", a.String(), "2023-01-05")
	}
}
