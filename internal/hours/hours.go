// Package hours parses and evaluates the semicolon-delimited weekly
// opening-hours mini-format:
//
//	mo-fr 11:00-22:00; sa,su 12:00-23:00
//
// Each segment optionally starts with two-letter day tokens (single days,
// ranges like "mo-fr", or the literal "daily") followed by one HH:MM-HH:MM
// interval. A segment without day tokens applies every day. A closing time
// at or before the opening time wraps past midnight.
package hours

import (
	"regexp"
	"strconv"
	"strings"
)

// Status is the result of evaluating a schedule for a requested window.
type Status int

const (
	// Unknown means the schedule was absent or unparseable.
	Unknown Status = iota
	// Open means some segment's interval fully contains the window.
	Open
	// Closed means segments were evaluated for the day but none contained
	// the window.
	Closed
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// DayOrder lists the two-letter day tokens in ISO week order.
var DayOrder = []string{"mo", "tu", "we", "th", "fr", "sa", "su"}

var (
	dayPattern  = regexp.MustCompile(`(mo|tu|we|th|fr|sa|su)(?:\s*-\s*(mo|tu|we|th|fr|sa|su))?`)
	timePattern = regexp.MustCompile(`(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})`)
)

type segment struct {
	days     map[string]struct{} // empty means every day
	openMin  int
	closeMin int // may exceed 24*60 for wraparound intervals
}

// Schedule is a parsed weekly schedule.
type Schedule struct {
	segments []segment
}

// Parse parses a schedule string. It returns ok=false when the string
// contains no usable segment, in which case evaluation yields Unknown.
func Parse(raw string) (Schedule, bool) {
	var sched Schedule
	for _, part := range strings.Split(raw, ";") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		tm := timePattern.FindStringSubmatch(part)
		if tm == nil {
			continue
		}
		openMin, okOpen := parseMinutes(tm[1])
		closeMin, okClose := parseMinutes(tm[2])
		if !okOpen || !okClose {
			continue
		}
		if closeMin <= openMin {
			closeMin += 24 * 60
		}

		sched.segments = append(sched.segments, segment{
			days:     parseDays(part),
			openMin:  openMin,
			closeMin: closeMin,
		})
	}
	return sched, len(sched.segments) > 0
}

// EvaluateWindow reports whether the schedule string covers the window
// [startMin, startMin+durationMin] on the given day ("mo".."su", empty for
// any day).
func EvaluateWindow(raw, day string, startMin, durationMin int) Status {
	if strings.TrimSpace(raw) == "" {
		return Unknown
	}
	sched, ok := Parse(raw)
	if !ok {
		return Unknown
	}
	return sched.Contains(day, startMin, durationMin)
}

// Contains reports whether any matching segment fully contains the window.
func (s Schedule) Contains(day string, startMin, durationMin int) Status {
	day = strings.ToLower(day)
	end := startMin + durationMin

	evaluated := false
	for _, seg := range s.segments {
		if len(seg.days) > 0 && day != "" {
			if _, ok := seg.days[day]; !ok {
				continue
			}
		}
		evaluated = true
		if startMin >= seg.openMin && end <= seg.closeMin {
			return Open
		}
	}
	if evaluated {
		return Closed
	}
	return Unknown
}

// parseDays extracts the day set of a segment. Nil means the segment
// applies every day.
func parseDays(part string) map[string]struct{} {
	if strings.Contains(part, "daily") || strings.Contains(part, "every day") {
		days := make(map[string]struct{}, len(DayOrder))
		for _, d := range DayOrder {
			days[d] = struct{}{}
		}
		return days
	}

	matches := dayPattern.FindAllStringSubmatch(part, -1)
	if len(matches) == 0 {
		return nil
	}

	days := make(map[string]struct{})
	for _, m := range matches {
		start, end := m[1], m[2]
		if end == "" {
			days[start] = struct{}{}
			continue
		}
		si, ei := dayIndex(start), dayIndex(end)
		if si <= ei {
			for i := si; i <= ei; i++ {
				days[DayOrder[i]] = struct{}{}
			}
		} else {
			// Range wraps the week boundary, e.g. "sa-mo".
			for i := si; i < len(DayOrder); i++ {
				days[DayOrder[i]] = struct{}{}
			}
			for i := 0; i <= ei; i++ {
				days[DayOrder[i]] = struct{}{}
			}
		}
	}
	return days
}

func dayIndex(day string) int {
	for i, d := range DayOrder {
		if d == day {
			return i
		}
	}
	return 0
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(value string) (int, bool) {
	return parseMinutes(value)
}

func parseMinutes(value string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
