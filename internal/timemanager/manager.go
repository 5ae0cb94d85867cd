// Package timemanager binds the configured week calendar to a holiday
// source and answers working-time queries over it.
package timemanager

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/business-hours-calc/internal/businesstime"
	"github.com/username/business-hours-calc/internal/calendar"
	"github.com/username/business-hours-calc/internal/workweek"
)

// maxYearsAhead bounds how far past the start year AddWorking loads
// holidays before giving up
const maxYearsAhead = 50

// ErrNoBusinessDays is returned when the schedule has no open day, so no
// positive duration can ever be added
var ErrNoBusinessDays = errors.New("schedule has no business days")

// Manager manages the week calendar and its holidays.
//
// Holidays of a year are loaded on first use, so a Manager is not safe
// for concurrent use. Snapshot preloads a range and returns a calendar
// that concurrent readers may share.
type Manager struct {
	calendar *workweek.Calendar
	source   calendar.Source
	cache    *HolidayCache
	minDaily time.Duration
	logger   *zap.Logger

	loaded map[int]bool
	now    func() time.Time
}

// NewManager creates a new time manager. source and cache may be nil.
func NewManager(
	cal *workweek.Calendar,
	source calendar.Source,
	cache *HolidayCache,
	minDaily time.Duration,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		calendar: cal,
		source:   source,
		cache:    cache,
		minDaily: minDaily,
		logger:   logger,
		loaded:   make(map[int]bool),
		now:      time.Now,
	}
}

// GetCalendar returns the calendar with every year loaded so far
func (m *Manager) GetCalendar() *workweek.Calendar {
	return m.calendar
}

// LoadYear merges the source's holidays of year into the calendar. A
// fresh cache entry is used as is; a stale one only when the source fails.
func (m *Manager) LoadYear(year int) error {
	if m.loaded[year] {
		return nil
	}
	if m.source == nil {
		m.loaded[year] = true
		return nil
	}

	var stale []calendar.Holiday
	if m.cache != nil {
		holidays, fresh, ok := m.cache.Get(year, m.source.Name(), m.now())
		if ok && fresh {
			m.logger.Debug("Using cached holidays",
				zap.Int("year", year),
				zap.Int("count", len(holidays)))
			m.apply(year, holidays)
			return nil
		}
		if ok {
			stale = holidays
		}
	}

	holidays, err := m.fetch(year)
	if err != nil {
		if stale == nil {
			return fmt.Errorf("failed to load holidays for %d: %w", year, err)
		}
		m.logger.Warn("Holiday source failed, using stale cache",
			zap.Int("year", year),
			zap.Error(err))
		holidays = stale
	}

	m.apply(year, holidays)
	return nil
}

// RefreshYear fetches the holidays of year from the source, bypassing
// the cache, and returns them
func (m *Manager) RefreshYear(year int) ([]calendar.Holiday, error) {
	if m.source == nil {
		return nil, fmt.Errorf("no holiday source configured")
	}

	holidays, err := m.fetch(year)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh holidays for %d: %w", year, err)
	}

	m.apply(year, holidays)
	return holidays, nil
}

func (m *Manager) fetch(year int) ([]calendar.Holiday, error) {
	holidays, err := m.source.Holidays(year)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Holidays fetched",
		zap.String("source", m.source.Name()),
		zap.Int("year", year),
		zap.Int("count", len(holidays)))

	if m.cache != nil {
		m.cache.Put(year, m.source.Name(), holidays, m.now())
		if err := m.cache.Save(); err != nil {
			m.logger.Warn("Failed to save holiday cache", zap.Error(err))
		}
	}
	return holidays, nil
}

func (m *Manager) apply(year int, holidays []calendar.Holiday) {
	for _, h := range holidays {
		m.calendar.AddHoliday(h.Date, h.Note)
	}
	m.loaded[year] = true
}

// ensureYears loads every year in [from, to]
func (m *Manager) ensureYears(from, to int) error {
	for year := from; year <= to; year++ {
		if err := m.LoadYear(year); err != nil {
			return err
		}
	}
	return nil
}

// Holidays returns the calendar's holidays falling in year, the fixed
// dates of the configuration included
func (m *Manager) Holidays(year int) ([]calendar.Holiday, error) {
	if err := m.LoadYear(year); err != nil {
		return nil, err
	}

	var out []calendar.Holiday
	for _, date := range m.calendar.Holidays() {
		if date.Year() != year {
			continue
		}
		note, _ := m.calendar.HolidayNote(date)
		out = append(out, calendar.Holiday{Date: date, Note: note})
	}
	return out, nil
}

// AddWorking returns the instant reached by adding d of working time to
// start. Years are loaded until the result falls inside a loaded year.
func (m *Manager) AddWorking(start time.Time, d time.Duration, opts ...businesstime.Option) (time.Time, error) {
	if d > 0 && len(m.calendar.BusinessDays()) == 0 {
		return time.Time{}, ErrNoBusinessDays
	}

	last := start.Year()
	if err := m.LoadYear(last); err != nil {
		return time.Time{}, err
	}

	for {
		result, err := businesstime.AddWorkingDuration(m.calendar, start, d, m.Options(opts...)...)
		if err != nil {
			return time.Time{}, err
		}
		if result.Year() <= last {
			return result, nil
		}
		if result.Year() > start.Year()+maxYearsAhead {
			return time.Time{}, fmt.Errorf("result %s is more than %d years after start", result.Format(time.RFC3339), maxYearsAhead)
		}

		m.logger.Debug("Result past loaded holidays, loading more years",
			zap.Int("loaded_until", last),
			zap.Int("result_year", result.Year()))

		if err := m.ensureYears(last+1, result.Year()); err != nil {
			return time.Time{}, err
		}
		last = result.Year()
	}
}

// Elapsed returns the working time inside [start, end)
func (m *Manager) Elapsed(start, end time.Time, opts ...businesstime.Option) (time.Duration, error) {
	if !start.After(end) {
		if err := m.ensureYears(start.Year(), end.Year()); err != nil {
			return 0, err
		}
	}
	return businesstime.ElapsedWorkingDuration(m.calendar, start, end, m.Options(opts...)...)
}

// Snapshot loads the years of [from, to] and returns the calendar for
// read-only use. The calendar must not be queried outside those years
// while the Manager keeps loading.
func (m *Manager) Snapshot(from, to time.Time) (*workweek.Calendar, error) {
	if err := m.ensureYears(from.Year(), to.Year()); err != nil {
		return nil, err
	}
	return m.calendar, nil
}

// Options returns the configured minimum followed by opts, so that
// caller options win
func (m *Manager) Options(opts ...businesstime.Option) []businesstime.Option {
	return append([]businesstime.Option{businesstime.WithMinDailyDuration(m.minDaily)}, opts...)
}
