package booking

import (
	"errors"
	"testing"
	"time"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

func mustInterval(t *testing.T, start, end time.Time) Interval {
	t.Helper()
	iv, err := NewInterval(start, end)
	if err != nil {
		t.Fatalf("NewInterval error: %v", err)
	}
	return iv
}

func at(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, 3, 2, hour, minute, 0, 0, ist)
}

func TestNewInterval_RejectsMalformed(t *testing.T) {
	start := at(t, 10, 0)

	for _, end := range []time.Time{start, start.Add(-time.Minute)} {
		_, err := NewInterval(start, end)
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("NewInterval(%v, %v) error = %v, want ErrInvalidInterval", start, end, err)
		}
	}
}

func TestIntervalOverlaps_HalfOpen(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			name: "identical",
			a:    mustInterval(t, at(t, 9, 0), at(t, 9, 30)),
			b:    mustInterval(t, at(t, 9, 0), at(t, 9, 30)),
			want: true,
		},
		{
			name: "partial overlap",
			a:    mustInterval(t, at(t, 9, 0), at(t, 10, 0)),
			b:    mustInterval(t, at(t, 9, 30), at(t, 10, 30)),
			want: true,
		},
		{
			name: "containment",
			a:    mustInterval(t, at(t, 9, 0), at(t, 12, 0)),
			b:    mustInterval(t, at(t, 10, 0), at(t, 10, 30)),
			want: true,
		},
		{
			name: "abutting endpoints do not overlap",
			a:    mustInterval(t, at(t, 9, 0), at(t, 9, 30)),
			b:    mustInterval(t, at(t, 9, 30), at(t, 10, 0)),
			want: false,
		},
		{
			name: "disjoint",
			a:    mustInterval(t, at(t, 9, 0), at(t, 9, 30)),
			b:    mustInterval(t, at(t, 11, 0), at(t, 11, 30)),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Fatalf("b.Overlaps(a) = %v, want %v (overlap must be symmetric)", got, tt.want)
			}
		})
	}
}

func TestIntervalOverlaps_OffsetAgnostic(t *testing.T) {
	// Same instants expressed in different zones must compare equal.
	a := mustInterval(t, at(t, 9, 0), at(t, 10, 0))
	b := mustInterval(t, at(t, 9, 30).UTC(), at(t, 10, 30).UTC())

	if !a.Overlaps(b) {
		t.Fatal("intervals overlapping in absolute time must overlap regardless of offset")
	}
}

func TestWithinWindow(t *testing.T) {
	window := WorkingWindow{
		Weekday:     time.Monday,
		IsAvailable: true,
		Start:       ClockTime{Minutes: 9 * 60},
		End:         ClockTime{Minutes: 17 * 60},
	}
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)

	inside := mustInterval(t, at(t, 9, 0), at(t, 9, 30))
	if !inside.WithinWindow(window, date, ist) {
		t.Fatal("interval at window start must be within window")
	}

	spillsOver := mustInterval(t, at(t, 16, 45), at(t, 17, 15))
	if spillsOver.WithinWindow(window, date, ist) {
		t.Fatal("interval past window end must not be within window")
	}

	window.IsAvailable = false
	if inside.WithinWindow(window, date, ist) {
		t.Fatal("unavailable window admits nothing")
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		minutes int
		wantErr bool
	}{
		{in: "09:00 AM", minutes: 9 * 60},
		{in: "12:00 AM", minutes: 0},
		{in: "12:30 PM", minutes: 12*60 + 30},
		{in: "01:05 pm", minutes: 13*60 + 5},
		{in: "11:59 PM", minutes: 23*60 + 59},
		{in: "  10:15 AM ", minutes: 10*60 + 15},
		{in: "13:00 PM", wantErr: true},
		{in: "00:30 AM", wantErr: true},
		{in: "09:60 AM", wantErr: true},
		{in: "09:5 AM", wantErr: true},
		{in: "09:00", wantErr: true},
		{in: "09:00 XM", wantErr: true},
		{in: "nine AM", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInterval) {
					t.Fatalf("ParseClockTime(%q) error = %v, want ErrInvalidInterval", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClockTime(%q) error: %v", tt.in, err)
			}
			if got.Minutes != tt.minutes {
				t.Fatalf("ParseClockTime(%q) = %d minutes, want %d", tt.in, got.Minutes, tt.minutes)
			}
		})
	}
}

func TestClockTimeString_RoundTrips(t *testing.T) {
	for _, m := range []int{0, 9 * 60, 12 * 60, 12*60 + 30, 23*60 + 59} {
		c := ClockTime{Minutes: m}
		parsed, err := ParseClockTime(c.String())
		if err != nil {
			t.Fatalf("ParseClockTime(%q) error: %v", c.String(), err)
		}
		if parsed.Minutes != m {
			t.Fatalf("round trip of %d minutes via %q yielded %d", m, c.String(), parsed.Minutes)
		}
	}
}

func TestClockTimeOn_AnchorsInZone(t *testing.T) {
	c := ClockTime{Minutes: 9*60 + 30}
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)

	got := c.On(date, ist)
	want := time.Date(2026, 3, 2, 9, 30, 0, 0, ist)
	if !got.Equal(want) {
		t.Fatalf("On = %v, want %v", got, want)
	}
}
