package healthdata

import (
	"fmt"
	"strings"
	"time"
)

// ExportTimestampLayout is the layout of every date attribute in an Apple
// Health export, e.g. "2023-04-01 07:31:12 -0700".
const ExportTimestampLayout = "2006-01-02 15:04:05 -0700"

var timestampLayouts = []string{
	ExportTimestampLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// QuantityRecord is a heart rate sample in the processed zone.
type QuantityRecord struct {
	CreatedAt string `csv:"created_at"`
	Value     string `csv:"value"`
}

// CountRecord is a step count or respiratory rate sample in the processed
// zone.
type CountRecord struct {
	CreatedAt string `csv:"created_at"`
	Count     string `csv:"count"`
}

// SleepRecord is a sleep analysis session in the processed zone.
type SleepRecord struct {
	CreatedAt string `csv:"created_at"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
}

// DailyValue is one row of a columnar dataset: the aggregate of a metric for
// a single calendar day.
type DailyValue struct {
	Date  time.Time
	Value float64
}

func (d DailyValue) Year() int         { return d.Date.Year() }
func (d DailyValue) Month() time.Month { return d.Date.Month() }
func (d DailyValue) Day() int          { return d.Date.Day() }

// ParseTimestamp parses a timestamp as written by the export or read back
// from the query layer.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// DayOf truncates t to midnight of its calendar day, keeping the date as seen
// in t's own location and expressing the result in UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
