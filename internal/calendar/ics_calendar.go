package calendar

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"go.uber.org/zap"

	"github.com/username/business-hours-calc/pkg/dateutil"
)

// ICSCalendar implements Source using an iCalendar (.ics) file.
//
// Every VEVENT closes the dates it covers. All-day events close
// [DTSTART, DTEND); timed events close each date they touch. Events with
// an RRULE (yearly public holidays) are expanded per requested year.
type ICSCalendar struct {
	filePath string
	logger   *zap.Logger

	mu     sync.Mutex
	events []ical.Event
}

// NewICSCalendar creates a new ICSCalendar instance
func NewICSCalendar(filePath string, logger *zap.Logger) *ICSCalendar {
	return &ICSCalendar{
		filePath: filePath,
		logger:   logger,
	}
}

// Name identifies the source in logs
func (ic *ICSCalendar) Name() string {
	return "ics"
}

// Load reads and decodes the iCalendar file
func (ic *ICSCalendar) Load() error {
	file, err := os.Open(ic.filePath)
	if err != nil {
		return fmt.Errorf("failed to open ics file: %w", err)
	}
	defer file.Close()

	events, err := decodeEvents(file)
	if err != nil {
		return fmt.Errorf("failed to decode ics file %s: %w", ic.filePath, err)
	}

	ic.mu.Lock()
	ic.events = events
	ic.mu.Unlock()

	ic.logger.Info("iCalendar file loaded",
		zap.String("file", ic.filePath),
		zap.Int("events", len(events)))

	return nil
}

func decodeEvents(r io.Reader) ([]ical.Event, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, err
	}
	return cal.Events(), nil
}

// Holidays returns the dates of year covered by an event
func (ic *ICSCalendar) Holidays(year int) ([]Holiday, error) {
	ic.mu.Lock()
	loaded := ic.events != nil
	ic.mu.Unlock()

	if !loaded {
		if err := ic.Load(); err != nil {
			return nil, err
		}
	}

	ic.mu.Lock()
	events := ic.events
	ic.mu.Unlock()

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	yearEnd := yearStart.AddDate(1, 0, 0)

	var holidays []Holiday
	for i := range events {
		ev := &events[i]

		note, _ := ev.Props.Text(ical.PropSummary)

		start, err := ev.DateTimeStart(time.Local)
		if err != nil {
			ic.logger.Warn("Skipping event without start",
				zap.String("summary", note),
				zap.Error(err))
			continue
		}
		end, err := ev.DateTimeEnd(time.Local)
		if err != nil || !end.After(start) {
			end = start
		}
		length := end.Sub(start)

		starts := []time.Time{start}
		set, err := ev.RecurrenceSet(time.Local)
		if err != nil {
			ic.logger.Warn("Ignoring invalid recurrence rule",
				zap.String("summary", note),
				zap.Error(err))
		} else if set != nil {
			starts = set.Between(yearStart.AddDate(0, 0, -1).Add(-length), yearEnd, true)
		}

		for _, s := range starts {
			holidays = append(holidays, coveredDates(s, s.Add(length), note)...)
		}
	}

	return normalize(year, holidays), nil
}

// coveredDates expands [start, end) into the dates it touches. An empty
// or date-only single-day range still closes its start date.
func coveredDates(start, end time.Time, note string) []Holiday {
	day := dateutil.StartOfDay(start)
	holidays := []Holiday{{Date: day, Note: note}}
	for day = dateutil.NextDay(day); day.Before(end); day = dateutil.NextDay(day) {
		holidays = append(holidays, Holiday{Date: day, Note: note})
	}
	return holidays
}
