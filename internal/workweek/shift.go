// Package workweek models a recurring weekly work schedule: shifts per
// day of week plus a flat set of holiday dates.
package workweek

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/business-hours-calc/pkg/dateutil"
)

// EndOfDay is the largest offset a shift may end at (24:00).
const EndOfDay = 24 * time.Hour

// ErrInvalidShift is returned for time-of-day offsets outside [0, 24h].
var ErrInvalidShift = errors.New("invalid shift")

// Shift is one contiguous open interval within a single calendar day,
// as offsets from midnight. Start < End always holds.
type Shift struct {
	Start time.Duration
	End   time.Duration
}

// NewShift creates a same-day shift
func NewShift(start, end time.Duration) (Shift, error) {
	if start < 0 || end > EndOfDay || start >= end {
		return Shift{}, fmt.Errorf("%w: %s-%s", ErrInvalidShift,
			dateutil.FormatClock(start), dateutil.FormatClock(end))
	}
	return Shift{Start: start, End: end}, nil
}

// MustNewShift is like NewShift but panics on an invalid interval. It is
// meant for shifts built from constants.
func MustNewShift(start, end time.Duration) Shift {
	s, err := NewShift(start, end)
	if err != nil {
		panic(err)
	}
	return s
}

// Clock builds a time-of-day offset
func Clock(hour, minute, second int) time.Duration {
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second
}

// Length returns the duration of the shift
func (s Shift) Length() time.Duration {
	return s.End - s.Start
}

// On returns the shift's bounds on the calendar date of day
func (s Shift) On(day time.Time) (start, end time.Time) {
	return dateutil.At(day, s.Start), dateutil.At(day, s.End)
}

func (s Shift) String() string {
	return dateutil.FormatClock(s.Start) + "-" + dateutil.FormatClock(s.End)
}
