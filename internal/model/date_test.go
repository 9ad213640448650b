package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_JSON(t *testing.T) {
	d, err := ParseDate("1998-03-14")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `"1998-03-14"` {
		t.Errorf("Marshal() = %s, want %q", b, "1998-03-14")
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "14/03/1998", "1998-13-01", "1998-03-14 10:00:00"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) should fail", in)
		}
	}
}

func TestNewDate_DropsClock(t *testing.T) {
	in := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	got := NewDate(in)
	if got.String() != "2024-01-31" {
		t.Errorf("NewDate() = %s, want 2024-01-31", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("NewDate() kept clock: %v", got.Time)
	}
	if next := got.AddDays(1).String(); next != "2024-02-01" {
		t.Errorf("AddDays(1) = %s, want 2024-02-01", next)
	}
}

func TestDateTime_RoundTripFormat(t *testing.T) {
	dt, err := ParseDateTime("2024-01-15 08:30:00")
	if err != nil {
		t.Fatalf("ParseDateTime() error = %v", err)
	}
	if dt.String() != "2024-01-15 08:30:00" {
		t.Errorf("String() = %q", dt.String())
	}
	if dt.Day().String() != "2024-01-15" {
		t.Errorf("Day() = %s", dt.Day())
	}

	var decoded DateTime
	if err := json.Unmarshal([]byte(`"2024-02-29 23:00:05"`), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.String() != "2024-02-29 23:00:05" {
		t.Errorf("decoded = %s", decoded)
	}
}

func TestNewDateTime_TruncatesToUTCSeconds(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2024, 5, 1, 1, 15, 30, 999, loc)

	got := NewDateTime(in)
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
	if got.String() != "2024-04-30 23:15:30" {
		t.Errorf("NewDateTime() = %s, want 2024-04-30 23:15:30", got)
	}
}
