package booking

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
	SyncSkipped SyncStatus = "skipped"
)

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID          uuid.UUID
	Name        string
	Specialty   *string
	Email       *string
	CalendarID  *string
	SlotMinutes int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkingWindow is a doctor's declared availability for one weekday.
// Read-only to the booking engine; doctor configuration owns it.
type WorkingWindow struct {
	Weekday     time.Weekday
	IsAvailable bool
	Start       ClockTime
	End         ClockTime
}

// Slot is a candidate bookable interval with its display label.
// Derived per availability query, never persisted.
type Slot struct {
	Interval Interval
	Label    string
}

// Reservation is the durable record of a booking. Confirmed reservations
// for one doctor are pairwise non-overlapping at all times.
type Reservation struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	PatientID       uuid.UUID
	Interval        Interval
	Status          ReservationStatus
	Reason          string
	SyncStatus      SyncStatus
	ExternalEventID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BusyPeriod is an externally reported span of unavailability, fetched
// per availability query and never persisted here.
type BusyPeriod = Interval

type EventLog struct {
	ID            int64
	EventType     string
	ReservationID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
