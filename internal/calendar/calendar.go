// Package calendar provides holiday sources that feed the flat holiday
// set of a workweek.Calendar.
package calendar

import (
	"sort"
	"time"

	"github.com/username/business-hours-calc/pkg/dateutil"
)

// Holiday is a single closed date
type Holiday struct {
	Date time.Time
	Note string
}

// Source returns the holidays of a year
type Source interface {
	// Holidays returns the closed dates of year in ascending order
	Holidays(year int) ([]Holiday, error)

	// Name identifies the source in logs
	Name() string
}

// normalize drops duplicates (first note wins), keeps only year and
// sorts ascending
func normalize(year int, holidays []Holiday) []Holiday {
	seen := make(map[int]bool, len(holidays))
	out := make([]Holiday, 0, len(holidays))
	for _, h := range holidays {
		if h.Date.Year() != year {
			continue
		}
		key := dateutil.JulianDay(h.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Holiday{Date: dateutil.StartOfDay(h.Date), Note: h.Note})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
