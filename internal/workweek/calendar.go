package workweek

import (
	"fmt"
	"sort"
	"time"

	"github.com/username/business-hours-calc/pkg/dateutil"
)

// Calendar is the weekly schedule plus holiday exceptions.
//
// Build a Calendar completely before sharing it: once construction is
// done it is only read, and any number of goroutines may query it.
type Calendar struct {
	days     map[time.Weekday]*WorkDay
	holidays map[int]holiday // julian day -> holiday
}

type holiday struct {
	date time.Time
	note string
}

// NewCalendar creates an empty calendar with no business days
func NewCalendar() *Calendar {
	return &Calendar{
		days:     make(map[time.Weekday]*WorkDay),
		holidays: make(map[int]holiday),
	}
}

// AddShift adds a shift to day. An end at or before start means the
// shift crosses midnight: the part after midnight goes to the next day.
func (c *Calendar) AddShift(day time.Weekday, start, end time.Duration) error {
	if start < 0 || start >= EndOfDay || end < 0 || end > EndOfDay {
		return fmt.Errorf("%w: %s-%s on %s", ErrInvalidShift,
			dateutil.FormatClock(start), dateutil.FormatClock(end), day)
	}

	if end > start {
		c.insert(day, Shift{Start: start, End: end})
		return nil
	}

	c.insert(day, Shift{Start: start, End: EndOfDay})
	if end > 0 {
		c.insert((day+1)%7, Shift{Start: 0, End: end})
	}
	return nil
}

// AddDay adds every shift to day, in any order
func (c *Calendar) AddDay(day time.Weekday, shifts ...Shift) error {
	for _, s := range shifts {
		if err := c.AddShift(day, s.Start, s.End); err != nil {
			return err
		}
	}
	return nil
}

func (c *Calendar) insert(day time.Weekday, s Shift) {
	wd, ok := c.days[day]
	if !ok {
		wd = NewWorkDay()
		c.days[day] = wd
	}
	wd.AddShift(s)
}

// AddHoliday marks the calendar date of date as closed. Adding the same
// date twice keeps the first note.
func (c *Calendar) AddHoliday(date time.Time, note string) {
	key := dateutil.JulianDay(date)
	if _, ok := c.holidays[key]; ok {
		return
	}
	c.holidays[key] = holiday{date: dateutil.StartOfDay(date), note: note}
}

// WorkDayFor returns the schedule of day, if it is a business day
func (c *Calendar) WorkDayFor(day time.Weekday) (*WorkDay, bool) {
	wd, ok := c.days[day]
	if !ok || wd.Len() == 0 {
		return nil, false
	}
	return wd, true
}

// IsHoliday reports whether the calendar date of date is a holiday
func (c *Calendar) IsHoliday(date time.Time) bool {
	_, ok := c.holidays[dateutil.JulianDay(date)]
	return ok
}

// HolidayNote returns the note stored with a holiday
func (c *Calendar) HolidayNote(date time.Time) (string, bool) {
	h, ok := c.holidays[dateutil.JulianDay(date)]
	return h.note, ok
}

// Holidays returns all holiday dates in ascending order
func (c *Calendar) Holidays() []time.Time {
	dates := make([]time.Time, 0, len(c.holidays))
	for _, h := range c.holidays {
		dates = append(dates, h.date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dateutil.JulianDay(dates[i]) < dateutil.JulianDay(dates[j])
	})
	return dates
}

// BusinessDays returns the days of week that have shifts, Sunday first
func (c *Calendar) BusinessDays() []time.Weekday {
	days := []time.Weekday{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if _, ok := c.WorkDayFor(d); ok {
			days = append(days, d)
		}
	}
	return days
}

// IsBusinessDay reports whether date has shifts and is not a holiday
func (c *Calendar) IsBusinessDay(date time.Time) bool {
	if _, ok := c.WorkDayFor(date.Weekday()); !ok {
		return false
	}
	return !c.IsHoliday(date)
}

// Default returns a fresh Monday-Friday calendar with two shifts a day
// (08:00-12:00, 13:00-17:00) and one holiday on 2023-10-23.
func Default() *Calendar {
	morning := MustNewShift(Clock(8, 0, 0), Clock(12, 0, 0))
	afternoon := MustNewShift(Clock(13, 0, 0), Clock(17, 0, 0))

	cal := NewCalendar()
	for d := time.Monday; d <= time.Friday; d++ {
		if err := cal.AddDay(d, morning, afternoon); err != nil {
			panic(err)
		}
	}
	cal.AddHoliday(time.Date(2023, time.October, 23, 0, 0, 0, 0, time.Local), "")
	return cal
}
