// Package isoduration converts between time.Duration and ISO 8601
// durations expressed in business units.
package isoduration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDayLength is the business day used for the D designator when
// the caller does not configure one. A business week is five days.
const DefaultDayLength = 8 * time.Hour

// Parse parses an ISO 8601 duration of the form P[nW][nD][T[nH][nM][nS]].
// Days and weeks are business units: one day is dayLength, one week is
// five days.
func Parse(value string, dayLength time.Duration) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if value[0] != 'P' {
		return 0, fmt.Errorf("invalid duration format %q: must start with P", value)
	}
	if dayLength <= 0 {
		dayLength = DefaultDayLength
	}

	datePart, timePart, hasTime := strings.Cut(value[1:], "T")
	if datePart == "" && timePart == "" {
		return 0, fmt.Errorf("invalid duration format %q: no components", value)
	}
	if hasTime && timePart == "" {
		return 0, fmt.Errorf("invalid duration format %q: empty time part", value)
	}

	var total time.Duration

	units := map[byte]time.Duration{'W': 5 * dayLength, 'D': dayLength}
	rest, err := consume(datePart, "WD", units, &total)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format %q: %w", value, err)
	}
	if rest != "" {
		return 0, fmt.Errorf("invalid duration format %q: unexpected %q", value, rest)
	}

	units = map[byte]time.Duration{'H': time.Hour, 'M': time.Minute, 'S': time.Second}
	rest, err = consume(timePart, "HMS", units, &total)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format %q: %w", value, err)
	}
	if rest != "" {
		return 0, fmt.Errorf("invalid duration format %q: unexpected %q", value, rest)
	}

	return total, nil
}

// consume reads "<number><designator>" groups in the order given by
// designators and adds them to total.
func consume(part, designators string, units map[byte]time.Duration, total *time.Duration) (string, error) {
	for i := 0; i < len(designators) && part != ""; i++ {
		idx := strings.IndexByte(part, designators[i])
		if idx < 0 {
			continue
		}
		n, err := strconv.Atoi(part[:idx])
		if err != nil || n < 0 {
			return part, fmt.Errorf("bad %c component %q", designators[i], part[:idx])
		}
		*total += time.Duration(n) * units[designators[i]]
		part = part[idx+1:]
	}
	return part, nil
}

// Format formats d as an ISO 8601 time duration using hours, minutes
// and seconds only.
// Examples: 8h -> PT8H, 1h30m -> PT1H30M, 0 -> PT0M
func Format(d time.Duration) string {
	if d < time.Second {
		return "PT0M"
	}

	total := int64(d / time.Second)
	hours, mins, secs := total/3600, (total/60)%60, total%60

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if mins > 0 {
		fmt.Fprintf(&b, "%dM", mins)
	}
	if secs > 0 {
		fmt.Fprintf(&b, "%dS", secs)
	}
	return b.String()
}

// ParseFlexible accepts either Go duration syntax ("8h30m") or ISO 8601
// ("PT8H30M", "P1D").
func ParseFlexible(value string, dayLength time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "P") {
		return Parse(value, dayLength)
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}
