// Package businesstime adds and measures working time over a
// workweek.Calendar.
//
// Both operations walk a cursor forward one calendar day at a time.
// Days without shifts and holidays are skipped; inside a business day
// only time within a shift counts. With a minimum daily duration, a day
// that is touched counts for at least that much: the shift ending last
// is extended by the shortfall.
//
// The functions never mutate the calendar, so a finished calendar can
// be shared by any number of goroutines.
package businesstime

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/business-hours-calc/internal/workweek"
	"github.com/username/business-hours-calc/pkg/dateutil"
)

// ErrInvalidArgument is returned for negative durations, a negative
// minimum daily duration, or an end before the start.
var ErrInvalidArgument = errors.New("invalid argument")

type options struct {
	minDaily time.Duration
}

// Option configures a single query
type Option func(*options)

// WithMinDailyDuration makes every touched business day count for at
// least d of working time. Zero disables the minimum.
func WithMinDailyDuration(d time.Duration) Option {
	return func(o *options) {
		o.minDaily = d
	}
}

func buildOptions(opts []Option) (options, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.minDaily < 0 {
		return o, fmt.Errorf("%w: negative minimum daily duration %s", ErrInvalidArgument, o.minDaily)
	}
	return o, nil
}

// AddWorkingDuration returns the instant reached by advancing d of
// working time from start. A zero d returns start as is, even outside
// business hours.
//
// A calendar with no business days never reaches the target; callers
// must supply at least one open day.
func AddWorkingDuration(cal *workweek.Calendar, start time.Time, d time.Duration, opts ...Option) (time.Time, error) {
	if d < 0 {
		return time.Time{}, fmt.Errorf("%w: negative duration %s", ErrInvalidArgument, d)
	}
	o, err := buildOptions(opts)
	if err != nil {
		return time.Time{}, err
	}

	cursor := start
	remaining := d
	firstDay := true

	for remaining > 0 {
		dayStart := dateutil.StartOfDay(cursor)
		nextDay := dateutil.NextDay(cursor)

		wd, ok := cal.WorkDayFor(cursor.Weekday())
		if !ok || cal.IsHoliday(cursor) {
			cursor = nextDay
			continue
		}

		ws := windows(wd, dayStart, o.minDaily)
		capacity := max(wd.OpenLength(), o.minDaily)
		if !firstDay && cursor.Equal(dayStart) && remaining > capacity {
			remaining -= capacity
			// an extended shift may run past midnight
			cursor = nextDay
			if end := reach(ws); end.After(cursor) {
				cursor = end
			}
			continue
		}
		firstDay = false

		for _, w := range ws {
			if cursor.After(w.end) {
				continue
			}
			if cursor.Before(w.start) {
				cursor = w.start
			}

			avail := w.end.Sub(cursor)
			if remaining > avail {
				cursor = w.end
				remaining -= avail
				continue
			}
			return cursor.Add(remaining), nil
		}

		if cursor.Before(nextDay) {
			cursor = nextDay
		}
	}

	return cursor, nil
}

// ElapsedWorkingDuration returns the working time inside [start, end).
func ElapsedWorkingDuration(cal *workweek.Calendar, start, end time.Time, opts ...Option) (time.Duration, error) {
	if start.After(end) {
		return 0, fmt.Errorf("%w: start %s is after end %s", ErrInvalidArgument,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	o, err := buildOptions(opts)
	if err != nil {
		return 0, err
	}

	var total time.Duration
	cursor := start

	for cursor.Before(end) {
		dayStart := dateutil.StartOfDay(cursor)
		nextDay := dateutil.NextDay(cursor)

		wd, ok := cal.WorkDayFor(cursor.Weekday())
		if !ok || cal.IsHoliday(cursor) {
			cursor = nextDay
			continue
		}

		for _, w := range windows(wd, dayStart, o.minDaily) {
			if !w.end.After(cursor) {
				continue
			}
			if !w.start.Before(end) {
				return total, nil
			}

			from := cursor
			if w.start.After(from) {
				from = w.start
			}
			to := w.end
			if end.Before(to) {
				to = end
			}
			total += to.Sub(from)

			cursor = w.end
			if !cursor.Before(end) {
				return total, nil
			}
		}

		if cursor.Before(nextDay) {
			cursor = nextDay
		}
	}

	return total, nil
}

type window struct {
	start, end time.Time
}

// windows lays the day's shifts onto dayStart. When the day falls short
// of minDaily, the window reaching furthest is extended by the shortfall,
// so the union of the windows is always max(OpenLength, minDaily).
func windows(wd *workweek.WorkDay, dayStart time.Time, minDaily time.Duration) []window {
	shifts := wd.Shifts()
	out := make([]window, len(shifts))
	last := 0
	for i, s := range shifts {
		start, end := s.On(dayStart)
		out[i] = window{start: start, end: end}
		if !end.Before(out[last].end) {
			last = i
		}
	}

	if shortfall := minDaily - wd.OpenLength(); shortfall > 0 && len(out) > 0 {
		out[last].end = out[last].end.Add(shortfall)
	}
	return out
}

// reach returns the latest end among ws.
func reach(ws []window) time.Time {
	var end time.Time
	for _, w := range ws {
		if w.end.After(end) {
			end = w.end
		}
	}
	return end
}
