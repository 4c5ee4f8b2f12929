package api

import (
	"time"

	"github.com/google/uuid"
)

type BookSlotRequest struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // "HH:MM AM/PM"
	EndTime   string `json:"end_time"`   // "HH:MM AM/PM"
	Reason    string `json:"reason,omitempty"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

type AvailabilityResponse struct {
	DoctorID       uuid.UUID      `json:"doctor_id"`
	Date           string         `json:"date"`
	WorkingHours   string         `json:"working_hours,omitempty"`
	AvailableSlots []SlotResponse `json:"available_slots"`
	TotalSlots     int            `json:"total_slots"`
}

type ReservationResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	SyncStatus      string    `json:"external_sync_status"`
	ExternalEventID *string   `json:"external_event_id,omitempty"`
}

type CancelResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
