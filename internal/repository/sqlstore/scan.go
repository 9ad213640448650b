package sqlstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/macromates/nutribuddy/internal/model"
)

// timeLayouts are the textual forms a timestamp may come back in. The pgx
// adapter hands out time.Time directly; SQLite returns time.Time for declared
// DATE/DATETIME columns but plain text for computed expressions such as
// MAX(logged_at).
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	model.DateLayout,
}

// nullTime scans a nullable timestamp in whichever representation the
// driver produced and normalises it to UTC.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v.UTC(), true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("sqlstore: cannot scan %T into a timestamp", src)
	}
}

func (n *nullTime) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("sqlstore: unrecognised timestamp %q", s)
}

func (n nullTime) date() model.Date {
	return model.NewDate(n.Time)
}

func (n nullTime) datePtr() *model.Date {
	if !n.Valid {
		return nil
	}
	d := n.date()
	return &d
}

func (n nullTime) dateTime() model.DateTime {
	return model.NewDateTime(n.Time)
}

func (n nullTime) dateTimePtr() *model.DateTime {
	if !n.Valid {
		return nil
	}
	dt := n.dateTime()
	return &dt
}

// dbTime is the value written for every timestamp column.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// dbDate is the value written for every DATE column: midnight UTC.
func dbDate(d model.Date) time.Time {
	return model.NewDate(d.Time).Time
}

func dbDatePtr(d *model.Date) any {
	if d == nil {
		return nil
	}
	return dbDate(*d)
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
