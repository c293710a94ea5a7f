package api

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    Decimal
		wantErr bool
	}{
		{`1.10`, "1.10", false},
		{`"2.5"`, "2.5", false},
		{`null`, "", false},
		{`"abc"`, "", true},
		{`"NaN"`, "", true},
		{`"0x1p3"`, "", true},
		{`"-1.5e3"`, "-1.5e3", false},
		{`true`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Decimal
			err := json.Unmarshal([]byte(tt.in), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && d != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d)
			}
		})
	}

	data, err := json.Marshal(Decimal(""))
	if err != nil || string(data) != "0" {
		t.Errorf("expected 0 for empty decimal, got %s, %v", data, err)
	}
	for _, bad := range []Decimal{"x", "NaN", "Inf", "-Infinity", "0x1p3", "1_000", ".5", "1.", "01"} {
		if data, err := json.Marshal(bad); err == nil {
			t.Errorf("expected error for decimal %q, got %s", bad, data)
		}
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-05-01T10:20:30Z"`, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
		{`"2024-05-01T12:20:30+02:00"`, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
		{`"2024-05-01T10:20:30.5"`, time.Date(2024, 5, 1, 10, 20, 30, 500000000, time.UTC)},
		{`"2024-05-01T10:20:30"`, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ts.Time)
			}
		})
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unrecognized timestamp")
	}
	if err := json.Unmarshal([]byte(`12`), &ts); err == nil {
		t.Error("expected error for non-string timestamp")
	}

	data, _ := json.Marshal(NewTimestamp(time.Date(2024, 5, 1, 10, 20, 30, 0, time.FixedZone("x", 3600))))
	if string(data) != `"2024-05-01T09:20:30Z"` {
		t.Errorf("unexpected encoding %s", data)
	}
}
