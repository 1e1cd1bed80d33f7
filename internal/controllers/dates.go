package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// calendarDate accepts "2006-01-02" as well as full RFC3339 timestamps.
// Date-only values are taken as midnight UTC.
type calendarDate struct {
	time.Time
}

func (d *calendarDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.ParseInLocation(dateLayout, raw, time.UTC); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("date %q must be YYYY-MM-DD or RFC3339", raw)
	}
	d.Time = t.UTC()
	return nil
}

// ptr returns nil for an absent date.
func (d *calendarDate) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
