package sqlstore

import (
	"testing"
	"time"
)

func TestNullTimeScan(t *testing.T) {
	want := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	berlin := time.FixedZone("CET", 3600)

	tests := []struct {
		name  string
		src   any
		valid bool
		want  time.Time
	}{
		{"nil", nil, false, time.Time{}},
		{"time.Time is normalised to UTC", want.In(berlin), true, want},
		{"sqlite text with offset", "2024-03-01 08:30:00+00:00", true, want},
		{"iso text", "2024-03-01T09:30:00+01:00", true, want},
		{"naive text", "2024-03-01 08:30:00", true, want},
		{"bytes", []byte("2024-03-01 08:30:00"), true, want},
		{"date only", "2024-03-01", true, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n nullTime
			if err := n.Scan(tt.src); err != nil {
				t.Fatalf("Scan(%v) error = %v", tt.src, err)
			}
			if n.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", n.Valid, tt.valid)
			}
			if !n.Time.Equal(tt.want) {
				t.Errorf("Time = %v, want %v", n.Time, tt.want)
			}
		})
	}
}

func TestNullTimeScan_Rejects(t *testing.T) {
	var n nullTime
	if err := n.Scan("yesterday"); err == nil {
		t.Error("expected error for unparseable text")
	}
	if err := n.Scan(42); err == nil {
		t.Error("expected error for integer source")
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":memory:", ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"},
		{"data/app.db", "data/app.db?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"},
		{"data/app.db?cache=shared", "data/app.db?cache=shared&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
