package models

import (
	"encoding/json"
	"time"
)

// ExpiryDate is a calendar date that survives JSON round-trips written by
// older versions of the data file. It marshals as an ISO date and accepts
// either an ISO date or a full ISO datetime on load. A string that parses
// as neither is retained verbatim so the data file is never corrupted by
// a load/save cycle.
type ExpiryDate struct {
	Time time.Time
	Raw  string // set only when the stored value could not be parsed
}

const dateLayout = "2006-01-02"

// dateTimeLayouts covers datetime strings written by earlier file formats.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NewExpiryDate builds an ExpiryDate from a time value, truncated to the day.
func NewExpiryDate(t time.Time) ExpiryDate {
	return ExpiryDate{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// IsZero reports whether no date is set.
func (d ExpiryDate) IsZero() bool {
	return d.Time.IsZero() && d.Raw == ""
}

// Valid reports whether the date parsed to a real calendar date.
func (d ExpiryDate) Valid() bool {
	return !d.Time.IsZero()
}

func (d ExpiryDate) String() string {
	if d.Valid() {
		return d.Time.Format(dateLayout)
	}
	return d.Raw
}

// MarshalJSON writes the date as an ISO date string, or echoes the raw
// value back when the original could not be parsed.
func (d ExpiryDate) MarshalJSON() ([]byte, error) {
	if d.Valid() {
		return json.Marshal(d.Time.Format(dateLayout))
	}
	return json.Marshal(d.Raw)
}

// UnmarshalJSON accepts ISO dates and ISO datetimes, keeping anything else
// as a raw string.
func (d *ExpiryDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = ExpiryDate{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = ExpiryDate{Time: t}
		return nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = NewExpiryDate(t)
			return nil
		}
	}
	*d = ExpiryDate{Raw: s}
	return nil
}
