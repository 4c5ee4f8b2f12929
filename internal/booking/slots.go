package booking

import (
	"fmt"
	"time"
)

// GenerateSlots materializes the ordered candidate slots for a day:
// contiguous fixed-length intervals starting at the window start. A
// trailing remainder shorter than the granularity is never emitted.
// Deterministic for identical inputs.
func GenerateSlots(date time.Time, window WorkingWindow, granularity time.Duration, loc *time.Location) []Slot {
	if !window.IsAvailable || granularity <= 0 {
		return nil
	}

	start := window.Start.On(date, loc)
	end := window.End.On(date, loc)

	var slots []Slot
	for cur := start; !cur.Add(granularity).After(end); cur = cur.Add(granularity) {
		iv := Interval{Start: cur, End: cur.Add(granularity)}
		slots = append(slots, Slot{
			Interval: iv,
			Label:    fmt.Sprintf("%s - %s", clockLabel(iv.Start), clockLabel(iv.End)),
		})
	}
	return slots
}

// FilterAvailable keeps the candidates that overlap no busy period and no
// confirmed reservation. Busy periods are advisory: when the external
// calendar could not be reached the caller passes an empty set and
// availability degrades to ledger-only.
func FilterAvailable(candidates []Slot, busy []BusyPeriod, reservations []Reservation) []Slot {
	available := make([]Slot, 0, len(candidates))

next:
	for _, c := range candidates {
		for _, b := range busy {
			if c.Interval.Overlaps(b) {
				continue next
			}
		}
		for _, r := range reservations {
			if r.Status != StatusConfirmed {
				continue
			}
			if c.Interval.Overlaps(r.Interval) {
				continue next
			}
		}
		available = append(available, c)
	}
	return available
}

func clockLabel(t time.Time) string {
	return ClockTime{Minutes: t.Hour()*60 + t.Minute()}.String()
}
