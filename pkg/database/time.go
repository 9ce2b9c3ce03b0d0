package database

import (
	"database/sql/driver"
	"fmt"
	"time"
)

var textLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Time scans timestamps whether the driver hands them over as time.Time or
// as text, which is how SQLite keeps them.
type Time struct {
	time.Time
}

func (t *Time) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into database.Time", src)
	}
}

func (t Time) Value() (driver.Value, error) {
	return t.Time, nil
}

func (t *Time) parse(s string) error {
	for _, layout := range textLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
