package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func window(startMin, endMin int) WorkingWindow {
	return WorkingWindow{
		Weekday:     time.Monday,
		IsAvailable: true,
		Start:       ClockTime{Minutes: startMin},
		End:         ClockTime{Minutes: endMin},
	}
}

func TestGenerateSlots_ContiguousAndBounded(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)
	w := window(9*60, 17*60)

	slots := GenerateSlots(date, w, 30*time.Minute, ist)

	if len(slots) != 16 {
		t.Fatalf("got %d slots, want 16", len(slots))
	}

	winStart := w.Start.On(date, ist)
	winEnd := w.End.On(date, ist)

	if !slots[0].Interval.Start.Equal(winStart) {
		t.Fatalf("first slot starts at %v, want %v", slots[0].Interval.Start, winStart)
	}
	if slots[len(slots)-1].Interval.End.After(winEnd) {
		t.Fatalf("last slot ends at %v, past window end %v", slots[len(slots)-1].Interval.End, winEnd)
	}

	for i, s := range slots {
		if s.Interval.Duration() != 30*time.Minute {
			t.Fatalf("slot %d duration = %s, want 30m", i, s.Interval.Duration())
		}
		if i > 0 && !slots[i-1].Interval.End.Equal(s.Interval.Start) {
			t.Fatalf("gap between slot %d and %d", i-1, i)
		}
	}
}

func TestGenerateSlots_NeverEmitsTrailingPartial(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)

	// 09:00-10:50 at 30m granularity leaves a 20m remainder.
	slots := GenerateSlots(date, window(9*60, 10*60+50), 30*time.Minute, ist)

	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	last := slots[len(slots)-1].Interval.End
	want := time.Date(2026, 3, 2, 10, 30, 0, 0, ist)
	if !last.Equal(want) {
		t.Fatalf("last slot ends at %v, want %v", last, want)
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)
	w := window(9*60, 13*60)

	first := GenerateSlots(date, w, 20*time.Minute, ist)
	second := GenerateSlots(date, w, 20*time.Minute, ist)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Interval.Start.Equal(second[i].Interval.Start) ||
			!first[i].Interval.End.Equal(second[i].Interval.End) ||
			first[i].Label != second[i].Label {
			t.Fatalf("slot %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGenerateSlots_UnavailableWindow(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)
	w := window(9*60, 17*60)
	w.IsAvailable = false

	if slots := GenerateSlots(date, w, 30*time.Minute, ist); len(slots) != 0 {
		t.Fatalf("unavailable window produced %d slots", len(slots))
	}
}

func TestGenerateSlots_Labels(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)

	slots := GenerateSlots(date, window(11*60+30, 12*60+30), 30*time.Minute, ist)
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	if slots[0].Label != "11:30 AM - 12:00 PM" {
		t.Fatalf("label = %q, want %q", slots[0].Label, "11:30 AM - 12:00 PM")
	}
	if slots[1].Label != "12:00 PM - 12:30 PM" {
		t.Fatalf("label = %q, want %q", slots[1].Label, "12:00 PM - 12:30 PM")
	}
}

// The reference example: working hours 09:00-11:00, 30 minute slots, a
// busy period 09:30-10:00 and a confirmed reservation 10:30-11:00 leave
// exactly 09:00-09:30 and 10:00-10:30 available.
func TestFilterAvailable_ReferenceExample(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)
	candidates := GenerateSlots(date, window(9*60, 11*60), 30*time.Minute, ist)
	if len(candidates) != 4 {
		t.Fatalf("got %d candidates, want 4", len(candidates))
	}

	busy := []BusyPeriod{
		{Start: time.Date(2026, 3, 2, 9, 30, 0, 0, ist), End: time.Date(2026, 3, 2, 10, 0, 0, 0, ist)},
	}
	reservations := []Reservation{
		{
			ID:       uuid.New(),
			Status:   StatusConfirmed,
			Interval: Interval{Start: time.Date(2026, 3, 2, 10, 30, 0, 0, ist), End: time.Date(2026, 3, 2, 11, 0, 0, 0, ist)},
		},
	}

	got := FilterAvailable(candidates, busy, reservations)

	if len(got) != 2 {
		t.Fatalf("got %d available slots, want 2", len(got))
	}
	if got[0].Label != "09:00 AM - 09:30 AM" {
		t.Fatalf("slot 0 = %q, want 09:00 AM - 09:30 AM", got[0].Label)
	}
	if got[1].Label != "10:00 AM - 10:30 AM" {
		t.Fatalf("slot 1 = %q, want 10:00 AM - 10:30 AM", got[1].Label)
	}
}

func TestFilterAvailable_IgnoresCancelledReservations(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)
	candidates := GenerateSlots(date, window(9*60, 10*60), 30*time.Minute, ist)

	reservations := []Reservation{
		{
			ID:       uuid.New(),
			Status:   StatusCancelled,
			Interval: Interval{Start: time.Date(2026, 3, 2, 9, 0, 0, 0, ist), End: time.Date(2026, 3, 2, 10, 0, 0, 0, ist)},
		},
	}

	got := FilterAvailable(candidates, nil, reservations)
	if len(got) != len(candidates) {
		t.Fatalf("cancelled reservation removed slots: got %d, want %d", len(got), len(candidates))
	}
}

func TestFilterAvailable_EmptyBusySetKeepsLedgerFiltering(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)
	candidates := GenerateSlots(date, window(9*60, 10*60), 30*time.Minute, ist)

	reservations := []Reservation{
		{
			ID:       uuid.New(),
			Status:   StatusConfirmed,
			Interval: Interval{Start: time.Date(2026, 3, 2, 9, 0, 0, 0, ist), End: time.Date(2026, 3, 2, 9, 30, 0, 0, ist)},
		},
	}

	got := FilterAvailable(candidates, nil, reservations)
	if len(got) != 1 {
		t.Fatalf("got %d slots, want 1", len(got))
	}
	if got[0].Label != "09:30 AM - 10:00 AM" {
		t.Fatalf("slot = %q, want 09:30 AM - 10:00 AM", got[0].Label)
	}
}
