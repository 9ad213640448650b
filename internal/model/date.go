// Package model holds the rows the API reads and writes, together with
// their external JSON representation.
//
// Field names in JSON tags follow what the dashboards already consume, so
// some resources use snake_case and the performance/report rows keep their
// historical column casing.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Date is a calendar day. It is always stored as midnight UTC and rendered
// as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate drops the clock part of t, keeping t's calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the day n days after d.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateTime is a wall-clock timestamp with second precision, stored in UTC and
// rendered as "YYYY-MM-DD HH:MM:SS".
type DateTime struct {
	time.Time
}

// NewDateTime normalises t to UTC and truncates it to whole seconds.
func NewDateTime(t time.Time) DateTime {
	return DateTime{t.UTC().Truncate(time.Second)}
}

// ParseDateTime parses "YYYY-MM-DD HH:MM:SS" as UTC.
func ParseDateTime(s string) (DateTime, error) {
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return DateTime{}, fmt.Errorf("parsing datetime %q: %w", s, err)
	}
	return DateTime{t}, nil
}

func (dt DateTime) String() string {
	return dt.Format(DateTimeLayout)
}

// Day returns the calendar day of dt.
func (dt DateTime) Day() Date {
	return NewDate(dt.Time)
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.String())
}

func (dt *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}
