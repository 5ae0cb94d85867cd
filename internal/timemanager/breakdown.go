package timemanager

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/business-hours-calc/internal/businesstime"
	"github.com/username/business-hours-calc/pkg/dateutil"
)

// DayBreakdown represents the working time of a single day
type DayBreakdown struct {
	Date      time.Time
	Scheduled time.Duration // open length of the weekday's shifts, zero on closed days
	Worked    time.Duration // working time of the day inside the range
	Holiday   bool
	Note      string
}

// BreakdownResult represents a per-day report over a date range
type BreakdownResult struct {
	From       time.Time
	To         time.Time
	Days       []DayBreakdown
	TotalHours float64
	Total      time.Duration
	OpenDays   int
}

// Breakdown reports every date of [from, to] (whole days, both
// inclusive) with its scheduled and counted working time
func (m *Manager) Breakdown(from, to time.Time, opts ...businesstime.Option) (*BreakdownResult, error) {
	from = dateutil.StartOfDay(from)
	to = dateutil.StartOfDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", businesstime.ErrInvalidArgument,
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	cal, err := m.Snapshot(from, to)
	if err != nil {
		return nil, err
	}
	queryOpts := m.Options(opts...)

	result := &BreakdownResult{From: from, To: to}

	for d := from; !d.After(to); d = dateutil.NextDay(d) {
		day := DayBreakdown{Date: d}

		if note, ok := cal.HolidayNote(d); ok {
			day.Holiday = true
			day.Note = note
		}

		if wd, ok := cal.WorkDayFor(d.Weekday()); ok && !day.Holiday {
			day.Scheduled = wd.OpenLength()
			result.OpenDays++
		}

		worked, err := businesstime.ElapsedWorkingDuration(cal, d, dateutil.NextDay(d), queryOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to measure %s: %w", d.Format("2006-01-02"), err)
		}
		day.Worked = worked

		result.Days = append(result.Days, day)
		result.Total += worked
	}
	result.TotalHours = result.Total.Hours()

	m.logger.Debug("Breakdown computed",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("open_days", result.OpenDays),
		zap.Duration("total", result.Total))

	return result, nil
}
