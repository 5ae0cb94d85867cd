package workweek

import (
	"sort"
	"time"
)

// WorkDay holds the shifts of one day of week, sorted by start time.
// Overlapping shifts are allowed.
type WorkDay struct {
	shifts      []Shift
	totalLength time.Duration
	openLength  time.Duration
}

// NewWorkDay creates a WorkDay from shifts given in any order
func NewWorkDay(shifts ...Shift) *WorkDay {
	wd := &WorkDay{}
	for _, s := range shifts {
		wd.AddShift(s)
	}
	return wd
}

// AddShift inserts s keeping the start-time order
func (wd *WorkDay) AddShift(s Shift) {
	i := sort.Search(len(wd.shifts), func(i int) bool {
		return wd.shifts[i].Start > s.Start
	})
	wd.shifts = append(wd.shifts, Shift{})
	copy(wd.shifts[i+1:], wd.shifts[i:])
	wd.shifts[i] = s

	wd.totalLength += s.Length()
	wd.openLength = unionLength(wd.shifts)
}

// Shifts returns a copy of the sorted shifts
func (wd *WorkDay) Shifts() []Shift {
	out := make([]Shift, len(wd.shifts))
	copy(out, wd.shifts)
	return out
}

// Len returns the number of shifts
func (wd *WorkDay) Len() int {
	return len(wd.shifts)
}

// TotalLength is the literal sum of shift lengths. It overstates the
// open time when shifts overlap.
func (wd *WorkDay) TotalLength() time.Duration {
	return wd.totalLength
}

// OpenLength is the length of the union of all shifts
func (wd *WorkDay) OpenLength() time.Duration {
	return wd.openLength
}

// LastShift returns the shift with the greatest start time
func (wd *WorkDay) LastShift() (Shift, bool) {
	if len(wd.shifts) == 0 {
		return Shift{}, false
	}
	return wd.shifts[len(wd.shifts)-1], true
}

// unionLength expects shifts sorted by start
func unionLength(shifts []Shift) time.Duration {
	var total time.Duration
	var reach time.Duration = -1
	for _, s := range shifts {
		switch {
		case s.Start >= reach:
			total += s.Length()
			reach = s.End
		case s.End > reach:
			total += s.End - reach
			reach = s.End
		}
	}
	return total
}
