package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrSlotConflict is the expected outcome when the requested interval
	// overlaps a confirmed reservation at commit time. Callers should pick
	// another slot, not treat it as a fault.
	ErrSlotConflict = errors.New("slot conflicts with an existing reservation")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetWorkingWindow returns the doctor's declared window for a weekday,
	// or an unavailable window when none is configured.
	GetWorkingWindow(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*WorkingWindow, error)

	// For conflict checks and availability filtering
	ListConfirmedReservations(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Reservation, error)
	GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// InsertReservationIfFree atomically verifies that no confirmed
	// reservation for the doctor overlaps the interval and inserts the new
	// confirmed row, returning ErrSlotConflict otherwise.
	InsertReservationIfFree(ctx context.Context, res Reservation) (*Reservation, error)

	// CancelReservation flips confirmed -> cancelled. The returned bool is
	// false when the reservation was already cancelled (a safe no-op).
	CancelReservation(ctx context.Context, id uuid.UUID) (*Reservation, bool, error)

	// UpdateSyncStatus records the reconciliation outcome exactly once.
	UpdateSyncStatus(ctx context.Context, id uuid.UUID, status SyncStatus, externalEventID *string) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
