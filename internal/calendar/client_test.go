package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestQueryBusyPeriods(t *testing.T) {
	busyStart := time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)
	busyEnd := busyStart.Add(30 * time.Minute)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendars/cal-1/freebusy" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("authorization = %q", got)
		}
		if r.URL.Query().Get("time_min") == "" || r.URL.Query().Get("time_max") == "" {
			t.Error("time_min/time_max missing")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"busy": []Period{{Start: busyStart, End: busyEnd}},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key-1")
	periods, err := client.QueryBusyPeriods(context.Background(), "cal-1", busyStart.Add(-time.Hour), busyEnd.Add(time.Hour))
	if err != nil {
		t.Fatalf("QueryBusyPeriods error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("got %d periods, want 1", len(periods))
	}
	if !periods[0].Start.Equal(busyStart) || !periods[0].End.Equal(busyEnd) {
		t.Fatalf("period = %+v", periods[0])
	}
}

func TestQueryBusyPeriods_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key-1")
	if _, err := client.QueryBusyPeriods(context.Background(), "cal-1", time.Now(), time.Now().Add(time.Hour)); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestCreateEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calendars/cal-1/events" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decode event: %v", err)
		}
		if ev.Summary == "" {
			t.Error("event summary missing")
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "ev-7"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key-1")
	id, err := client.CreateEvent(context.Background(), "cal-1", Event{
		Summary: "Appointment: Asha",
		Start:   time.Now(),
		End:     time.Now().Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateEvent error: %v", err)
	}
	if id != "ev-7" {
		t.Fatalf("event id = %q, want ev-7", id)
	}
}

func TestNoopClient(t *testing.T) {
	var c Client = NoopClient{}

	periods, err := c.QueryBusyPeriods(context.Background(), "cal-1", time.Now(), time.Now().Add(time.Hour))
	if err != nil || len(periods) != 0 {
		t.Fatalf("noop busy query = %v, %v", periods, err)
	}

	if _, err := c.CreateEvent(context.Background(), "cal-1", Event{}); err != ErrNotConfigured {
		t.Fatalf("noop create event error = %v, want ErrNotConfigured", err)
	}
}
