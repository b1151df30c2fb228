package board

import (
	"testing"
	"time"
)

func TestParseDue(t *testing.T) {
	structured := time.Date(2026, 6, 15, 18, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name      string
		input     any
		wantErr   bool
		wantClear bool
		want      time.Time
	}{
		{
			name:      "nil clears",
			input:     nil,
			wantClear: true,
		},
		{
			name:  "structured value",
			input: structured,
			want:  structured.UTC(),
		},
		{
			name:      "nil time pointer clears",
			input:     (*time.Time)(nil),
			wantClear: true,
		},
		{
			name:  "rfc3339 string",
			input: "2026-06-15T17:30:00Z",
			want:  time.Date(2026, 6, 15, 17, 30, 0, 0, time.UTC),
		},
		{
			name:  "date-only string",
			input: "2026-06-15",
			want:  time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "empty string clears",
			input:     "",
			wantClear: true,
		},
		{
			name:    "garbage string",
			input:   "soonish",
			wantErr: true,
		},
		{
			name:    "unsupported type",
			input:   42,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, err := ParseDue(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !due.Present() {
				t.Fatal("parsed due should be present")
			}
			if tt.wantClear {
				if due.Value() != nil {
					t.Errorf("want cleared, got %v", due.Value())
				}
				return
			}
			if got := due.Value(); got == nil || !got.Equal(tt.want) {
				t.Errorf("Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDueDateZeroValue(t *testing.T) {
	var due DueDate
	if due.Present() {
		t.Error("zero DueDate must mean \"leave untouched\"")
	}
	if due.Value() != nil {
		t.Error("zero DueDate has no value")
	}
	if due.String() != "" {
		t.Errorf("String() = %q, want empty", due.String())
	}
}

func TestDueDateRoundTrip(t *testing.T) {
	orig := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	due := DueOn(orig)
	parsed, err := ParseDue(due.String())
	if err != nil {
		t.Fatalf("ParseDue(%q) failed: %v", due.String(), err)
	}
	if got := parsed.Value(); got == nil || !got.Equal(orig) {
		t.Errorf("round trip = %v, want %v", got, orig)
	}
}
