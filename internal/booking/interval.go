package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidInterval = errors.New("invalid time interval")

// Interval is a half-open span of absolute time [Start, End).
// Start < End always holds for intervals built through NewInterval.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints (a.End == b.Start) do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Duration returns End - Start.
func (a Interval) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// WithinWindow reports whether the interval lies fully inside the working
// window anchored on the given date in loc.
func (a Interval) WithinWindow(w WorkingWindow, date time.Time, loc *time.Location) bool {
	if !w.IsAvailable {
		return false
	}
	winStart := w.Start.On(date, loc)
	winEnd := w.End.On(date, loc)
	return !a.Start.Before(winStart) && !a.End.After(winEnd)
}

// ClockTime is a minute-resolution time of day, independent of any date.
type ClockTime struct {
	Minutes int // minutes since midnight, 0..1439
}

// ParseClockTime parses the human-facing "HH:MM AM" / "HH:MM PM" form.
// Hour must be 1-12, minute 00-59 and the meridiem is required; anything
// else is ErrInvalidInterval so a malformed label can never silently
// produce a wrong interval.
func ParseClockTime(s string) (ClockTime, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return ClockTime{}, fmt.Errorf("%w: %q is not in HH:MM AM/PM form", ErrInvalidInterval, s)
	}

	hm := strings.Split(fields[0], ":")
	if len(hm) != 2 {
		return ClockTime{}, fmt.Errorf("%w: %q is not in HH:MM AM/PM form", ErrInvalidInterval, s)
	}

	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 1 || hour > 12 {
		return ClockTime{}, fmt.Errorf("%w: hour in %q must be 1-12", ErrInvalidInterval, s)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil || len(hm[1]) != 2 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: minute in %q must be 00-59", ErrInvalidInterval, s)
	}

	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return ClockTime{}, fmt.Errorf("%w: %q is missing AM/PM", ErrInvalidInterval, s)
	}

	return ClockTime{Minutes: hour*60 + minute}, nil
}

// ClockTimeFromMinutes builds a ClockTime from minutes since midnight.
func ClockTimeFromMinutes(m int) (ClockTime, error) {
	if m < 0 || m >= 24*60 {
		return ClockTime{}, fmt.Errorf("%w: %d minutes is outside a day", ErrInvalidInterval, m)
	}
	return ClockTime{Minutes: m}, nil
}

// On anchors the time of day on the given calendar date in loc, producing
// an absolute instant.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Minutes/60, c.Minutes%60, 0, 0, loc)
}

// String renders the 12-hour label form, e.g. "09:30 AM".
func (c ClockTime) String() string {
	h := c.Minutes / 60
	m := c.Minutes % 60
	meridiem := "AM"
	if h >= 12 {
		meridiem = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h12, m, meridiem)
}

func (c ClockTime) Before(other ClockTime) bool {
	return c.Minutes < other.Minutes
}
