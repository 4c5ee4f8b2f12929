package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// These cover the request validation layer, which rejects before the
// service is ever touched.

func TestBookSlotHandler_RequestValidation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+30*60)
	handler := bookSlotHandler(nil, loc)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "malformed json",
			body:      "{not json",
			wantError: "invalid_request_body",
		},
		{
			name:      "bad doctor id",
			body:      `{"doctor_id":"nope","patient_id":"b54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e","date":"2026-03-02","start_time":"09:00 AM","end_time":"09:30 AM"}`,
			wantError: "invalid_doctor_id",
		},
		{
			name:      "bad patient id",
			body:      `{"doctor_id":"b54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e","patient_id":"nope","date":"2026-03-02","start_time":"09:00 AM","end_time":"09:30 AM"}`,
			wantError: "invalid_patient_id",
		},
		{
			name:      "bad date",
			body:      `{"doctor_id":"b54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e","patient_id":"c54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e","date":"02-03-2026","start_time":"09:00 AM","end_time":"09:30 AM"}`,
			wantError: "invalid_date",
		},
		{
			name:      "missing meridiem",
			body:      `{"doctor_id":"b54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e","patient_id":"c54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e","date":"2026-03-02","start_time":"09:00","end_time":"09:30 AM"}`,
			wantError: "invalid_interval",
		},
		{
			name:      "24h clock rejected",
			body:      `{"doctor_id":"b54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e","patient_id":"c54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e","date":"2026-03-02","start_time":"09:00 AM","end_time":"13:00 PM"}`,
			wantError: "invalid_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Fatalf("error code = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestGetAvailabilityHandler_RequestValidation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+30*60)
	router := NewRouter(RouterConfig{Location: loc})

	tests := []struct {
		name      string
		target    string
		wantError string
	}{
		{
			name:      "bad doctor id",
			target:    "/doctors/nope/availability?date=2026-03-02",
			wantError: "invalid_doctor_id",
		},
		{
			name:      "missing date",
			target:    "/doctors/b54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e/availability",
			wantError: "invalid_date",
		},
		{
			name:      "bad date",
			target:    "/doctors/b54ebcc9-3e1a-4a52-9a07-5e9e8a9c5f0e/availability?date=tomorrow",
			wantError: "invalid_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Fatalf("error code = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}
