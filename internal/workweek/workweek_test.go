package workweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustShift(t *testing.T, start, end time.Duration) Shift {
	t.Helper()
	s, err := NewShift(start, end)
	require.NoError(t, err)
	return s
}

func TestNewShift(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Duration
		end     time.Duration
		wantErr bool
	}{
		{"regular", Clock(8, 0, 0), Clock(12, 0, 0), false},
		{"until midnight", Clock(22, 0, 0), EndOfDay, false},
		{"zero length", Clock(8, 0, 0), Clock(8, 0, 0), true},
		{"reversed", Clock(22, 0, 0), Clock(2, 0, 0), true},
		{"negative", -time.Hour, Clock(2, 0, 0), true},
		{"past end of day", Clock(22, 0, 0), 25 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewShift(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidShift)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.end-tt.start, s.Length())
		})
	}
}

func TestWorkDaySortsShifts(t *testing.T) {
	wd := NewWorkDay()
	wd.AddShift(mustShift(t, Clock(13, 0, 0), Clock(17, 0, 0)))
	wd.AddShift(mustShift(t, Clock(8, 0, 0), Clock(12, 0, 0)))
	wd.AddShift(mustShift(t, Clock(18, 0, 0), Clock(22, 0, 0)))

	shifts := wd.Shifts()
	require.Len(t, shifts, 3)
	assert.Equal(t, Clock(8, 0, 0), shifts[0].Start)
	assert.Equal(t, Clock(13, 0, 0), shifts[1].Start)
	assert.Equal(t, Clock(18, 0, 0), shifts[2].Start)

	last, ok := wd.LastShift()
	require.True(t, ok)
	assert.Equal(t, Clock(18, 0, 0), last.Start)
	assert.Equal(t, 12*time.Hour, wd.TotalLength())
	assert.Equal(t, 12*time.Hour, wd.OpenLength())
}

func TestWorkDayOverlappingLengths(t *testing.T) {
	wd := NewWorkDay(
		mustShift(t, Clock(11, 0, 0), Clock(15, 0, 0)),
		mustShift(t, Clock(9, 0, 0), Clock(12, 0, 0)),
		mustShift(t, Clock(16, 0, 0), Clock(19, 0, 0)),
		mustShift(t, Clock(16, 30, 0), Clock(17, 0, 0)),
	)

	assert.Equal(t, 10*time.Hour+30*time.Minute, wd.TotalLength())
	assert.Equal(t, 9*time.Hour, wd.OpenLength())
}

func TestWorkDayShiftsIsCopy(t *testing.T) {
	wd := NewWorkDay(mustShift(t, Clock(8, 0, 0), Clock(12, 0, 0)))
	shifts := wd.Shifts()
	shifts[0].Start = 0

	assert.Equal(t, Clock(8, 0, 0), wd.Shifts()[0].Start)
}

func TestEmptyWorkDay(t *testing.T) {
	wd := NewWorkDay()
	_, ok := wd.LastShift()
	assert.False(t, ok)
	assert.Zero(t, wd.TotalLength())
}

func TestCalendarSplitsMidnightShift(t *testing.T) {
	cal := NewCalendar()
	require.NoError(t, cal.AddShift(time.Monday, Clock(22, 0, 0), Clock(2, 0, 0)))

	monday, ok := cal.WorkDayFor(time.Monday)
	require.True(t, ok)
	assert.Equal(t, []Shift{{Start: Clock(22, 0, 0), End: EndOfDay}}, monday.Shifts())

	tuesday, ok := cal.WorkDayFor(time.Tuesday)
	require.True(t, ok)
	assert.Equal(t, []Shift{{Start: 0, End: Clock(2, 0, 0)}}, tuesday.Shifts())

	for d := time.Sunday; d <= time.Saturday; d++ {
		wd, ok := cal.WorkDayFor(d)
		if !ok {
			continue
		}
		for _, s := range wd.Shifts() {
			assert.Less(t, s.Start, s.End, "shift %s on %s crosses midnight", s, d)
		}
	}
}

func TestCalendarSaturdayWrapsToSunday(t *testing.T) {
	cal := NewCalendar()
	require.NoError(t, cal.AddShift(time.Saturday, Clock(20, 0, 0), Clock(4, 0, 0)))

	sunday, ok := cal.WorkDayFor(time.Sunday)
	require.True(t, ok)
	assert.Equal(t, 4*time.Hour, sunday.TotalLength())
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, cal.BusinessDays())
}

func TestCalendarEndAtMidnightStaysOnDay(t *testing.T) {
	cal := NewCalendar()
	require.NoError(t, cal.AddShift(time.Friday, Clock(18, 0, 0), 0))

	_, ok := cal.WorkDayFor(time.Saturday)
	assert.False(t, ok, "zero-length half after midnight must be dropped")

	friday, ok := cal.WorkDayFor(time.Friday)
	require.True(t, ok)
	assert.Equal(t, 6*time.Hour, friday.TotalLength())
}

func TestCalendarEqualStartAndEndIsFullDay(t *testing.T) {
	cal := NewCalendar()
	require.NoError(t, cal.AddShift(time.Wednesday, Clock(6, 0, 0), Clock(6, 0, 0)))

	wed, _ := cal.WorkDayFor(time.Wednesday)
	thu, _ := cal.WorkDayFor(time.Thursday)
	assert.Equal(t, 18*time.Hour, wed.TotalLength())
	assert.Equal(t, 6*time.Hour, thu.TotalLength())
}

func TestCalendarRejectsOutOfRange(t *testing.T) {
	cal := NewCalendar()
	err := cal.AddShift(time.Monday, Clock(8, 0, 0), 25*time.Hour)
	assert.ErrorIs(t, err, ErrInvalidShift)

	_, ok := cal.WorkDayFor(time.Monday)
	assert.False(t, ok)
}

func TestCalendarAddDayUnordered(t *testing.T) {
	cal := NewCalendar()
	require.NoError(t, cal.AddDay(time.Monday,
		Shift{Start: Clock(17, 0, 0), End: Clock(20, 0, 0)},
		Shift{Start: Clock(9, 0, 0), End: Clock(12, 0, 0)},
		Shift{Start: Clock(13, 0, 0), End: Clock(17, 0, 0)},
	))

	monday, _ := cal.WorkDayFor(time.Monday)
	shifts := monday.Shifts()
	assert.Equal(t, Clock(9, 0, 0), shifts[0].Start)
	assert.Equal(t, Clock(17, 0, 0), shifts[2].Start)
}

func TestCalendarHolidays(t *testing.T) {
	cal := NewCalendar()
	day := time.Date(2023, 10, 23, 15, 30, 0, 0, time.UTC)

	cal.AddHoliday(day, "Labour Day")
	cal.AddHoliday(time.Date(2023, 10, 23, 0, 0, 0, 0, time.UTC), "duplicate")
	cal.AddHoliday(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), "")

	assert.True(t, cal.IsHoliday(time.Date(2023, 10, 23, 8, 0, 0, 0, time.UTC)))
	assert.False(t, cal.IsHoliday(time.Date(2023, 10, 24, 8, 0, 0, 0, time.UTC)))

	note, ok := cal.HolidayNote(day)
	require.True(t, ok)
	assert.Equal(t, "Labour Day", note)

	holidays := cal.Holidays()
	require.Len(t, holidays, 2)
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), holidays[0])
	assert.Equal(t, time.Date(2023, 10, 23, 0, 0, 0, 0, time.UTC), holidays[1])
}

func TestMustNewShift(t *testing.T) {
	assert.Equal(t, Shift{Start: Clock(8, 0, 0), End: Clock(12, 0, 0)}, MustNewShift(Clock(8, 0, 0), Clock(12, 0, 0)))
	assert.Panics(t, func() { MustNewShift(Clock(12, 0, 0), Clock(8, 0, 0)) })
}

func TestDefaultCalendar(t *testing.T) {
	cal := Default()

	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		cal.BusinessDays())

	monday, ok := cal.WorkDayFor(time.Monday)
	require.True(t, ok)
	assert.Equal(t, 8*time.Hour, monday.TotalLength())

	assert.True(t, cal.IsHoliday(time.Date(2023, 10, 23, 12, 0, 0, 0, time.Local)))
	assert.False(t, cal.IsBusinessDay(time.Date(2023, 10, 23, 12, 0, 0, 0, time.Local)))
	assert.True(t, cal.IsBusinessDay(time.Date(2023, 10, 24, 12, 0, 0, 0, time.Local)))

	// each call builds a new calendar
	other := Default()
	other.AddHoliday(time.Date(2023, 10, 24, 0, 0, 0, 0, time.Local), "")
	assert.False(t, cal.IsHoliday(time.Date(2023, 10, 24, 0, 0, 0, 0, time.Local)))
}
