package models

import (
	"fmt"
	"strings"
	"time"
)

// DateRange is an inclusive range of calendar days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange validates two ISO dates (yyyy-mm-dd) with start <= end
func ParseDateRange(start, end string) (DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return DateRange{}, fmt.Errorf("%w: start and end dates are required", ErrInvalidRange)
	}
	s, err := time.Parse(ISODate, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: invalid start date %q", ErrInvalidRange, start)
	}
	e, err := time.Parse(ISODate, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: invalid end date %q", ErrInvalidRange, end)
	}
	return NewDateRange(s, e)
}

// NewDateRange truncates both ends to their calendar day and checks ordering
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: dayOf(start), End: dayOf(end)}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, r.StartString(), r.EndString())
	}
	return r, nil
}

// Days enumerates every calendar day from Start to End inclusive
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether the calendar date of t lies within the range
func (r DateRange) Contains(t time.Time) bool {
	d := dayOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) StartString() string { return r.Start.Format(ISODate) }
func (r DateRange) EndString() string   { return r.End.Format(ISODate) }

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
