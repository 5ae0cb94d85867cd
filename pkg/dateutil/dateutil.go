package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// NextDay returns midnight of the calendar day after date
func NextDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day()+1, 0, 0, 0, 0, date.Location())
}

// At returns the wall-clock instant offset from midnight of date.
// An offset of 24h yields midnight of the next day.
func At(date time.Time, offset time.Duration) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, int(offset), date.Location())
}

// JulianDay returns the julian day number of the calendar date of t.
// Used as a location-independent key for civil dates.
func JulianDay(t time.Time) int {
	year, m, day := t.Date()
	month := int(m)
	return day - 32075 + 1461*(year+4800+(month-14)/12)/4 + 367*(month-2-(month-14)/12*12)/12 -
		3*((year+4900+(month-14)/12)/100)/4
}

// IsWeekday returns true if the date is Monday-Friday
func IsWeekday(date time.Time) bool {
	weekday := date.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// DaysInYear returns every date of the year, starting at January 1
func DaysInYear(year int, loc *time.Location) []time.Time {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	days := make([]time.Time, 0, 366)
	for d := first; d.Year() == year; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ParseDate parses date string in various formats
func ParseDate(dateStr string) (time.Time, error) {
	return parseIn(dateStr, time.Local, []string{
		"2006-01-02",
		"02.01.2006",
	})
}

// ParseDateTime parses a local date-time. A bare date means midnight.
func ParseDateTime(value string) (time.Time, error) {
	return parseIn(value, time.Local, []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"02.01.2006 15:04",
		"02.01.2006",
	})
}

func parseIn(value string, loc *time.Location, formats []string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// ParseClock parses a time of day ("HH:MM" or "HH:MM:SS") into an offset
// from midnight. "24:00" is accepted as the end of the day.
func ParseClock(value string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM[:SS]", value)
	}

	fields := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time of day %q", value)
		}
		fields[i] = n
	}

	h, m, s := fields[0], fields[1], fields[2]
	if m > 59 || s > 59 || h > 24 || (h == 24 && (m != 0 || s != 0)) {
		return 0, fmt.Errorf("time of day out of range: %q", value)
	}

	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
}

// FormatClock formats an offset from midnight as HH:MM, adding seconds
// only when they are non-zero
func FormatClock(offset time.Duration) string {
	total := int(offset / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Today returns today's date (start of day)
func Today() time.Time {
	return StartOfDay(time.Now())
}
