package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/scheduling/internal/calendar"
	redisclient "github.com/careconnect/scheduling/internal/redis"
)

const (
	EventReservationCreated   = "RESERVATION_CREATED"
	EventReservationCancelled = "RESERVATION_CANCELLED"
	EventSyncCompleted        = "SYNC_COMPLETED"
)

var (
	// ErrBookingInProgress means another request holds the doctor lock.
	// Like ErrSlotConflict it is an expected outcome: retry shortly.
	ErrBookingInProgress = errors.New("doctor is currently being booked, please retry")
)

const defaultSlotMinutes = 30

type Service struct {
	repo       Repository
	locker     redisclient.Locker
	cal        calendar.Client
	reconciler *Reconciler
	loc        *time.Location
}

func NewService(repo Repository, locker redisclient.Locker, cal calendar.Client, reconciler *Reconciler, loc *time.Location) *Service {
	return &Service{
		repo:       repo,
		locker:     locker,
		cal:        cal,
		reconciler: reconciler,
		loc:        loc,
	}
}

// Availability is the answer to "which slots can be booked for this
// doctor on this date".
type Availability struct {
	Doctor       *Doctor
	Window       *WorkingWindow
	WorkingHours string // empty when the doctor is off that day
	Slots        []Slot
	TotalSlots   int
}

// GetAvailability derives the bookable slots for (doctor, date) from the
// weekly working window, the reservation ledger and the external
// calendar's busy periods. Read-only; results may be stale relative to
// in-flight bookings, the booking transaction is the final arbiter.
func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Availability, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	day := date.In(s.loc)

	window, err := s.repo.GetWorkingWindow(ctx, doctorID, day.Weekday())
	if err != nil {
		return nil, fmt.Errorf("load working window: %w", err)
	}

	if !window.IsAvailable {
		return &Availability{Doctor: doctor, Window: window, Slots: []Slot{}}, nil
	}

	granularity := time.Duration(doctor.SlotMinutes) * time.Minute
	if granularity <= 0 {
		granularity = defaultSlotMinutes * time.Minute
	}

	candidates := GenerateSlots(day, *window, granularity, s.loc)

	winStart := window.Start.On(day, s.loc)
	winEnd := window.End.On(day, s.loc)

	busy := s.fetchBusyPeriods(ctx, doctor, winStart, winEnd)

	reservations, err := s.repo.ListConfirmedReservations(ctx, doctorID, winStart, winEnd)
	if err != nil {
		return nil, fmt.Errorf("list confirmed reservations: %w", err)
	}

	available := FilterAvailable(candidates, busy, reservations)

	return &Availability{
		Doctor:       doctor,
		Window:       window,
		WorkingHours: fmt.Sprintf("%s - %s", window.Start, window.End),
		Slots:        available,
		TotalSlots:   len(candidates),
	}, nil
}

// fetchBusyPeriods asks the external calendar for the doctor's busy
// spans. Any failure degrades to an empty set: availability stays
// servable from the ledger alone, it just may over-offer slots the
// calendar would have excluded.
func (s *Service) fetchBusyPeriods(ctx context.Context, doctor *Doctor, from, to time.Time) []BusyPeriod {
	if doctor.CalendarID == nil || *doctor.CalendarID == "" {
		return nil
	}

	periods, err := s.cal.QueryBusyPeriods(ctx, *doctor.CalendarID, from, to)
	if err != nil {
		log.Printf("busy period fetch failed for doctor %s, serving ledger-only availability: %v", doctor.ID, err)
		return nil
	}

	busy := make([]BusyPeriod, 0, len(periods))
	for _, p := range periods {
		if !p.Start.Before(p.End) {
			continue
		}
		busy = append(busy, Interval{Start: p.Start, End: p.End})
	}
	return busy
}

type BookInput struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	Start     ClockTime
	End       ClockTime
	Reason    string
}

// BookSlot atomically reserves the requested interval for the doctor.
// The per-doctor lock plus the storage-level overlap guard make the
// check-and-insert indivisible with respect to concurrent bookings for
// the same doctor. The reservation is committed and returned before any
// external synchronization is attempted.
func (s *Service) BookSlot(ctx context.Context, in BookInput) (*Reservation, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, in.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	patient, err := s.repo.GetPatientByID(ctx, in.PatientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	day := in.Date.In(s.loc)
	interval, err := NewInterval(in.Start.On(day, s.loc), in.End.On(day, s.loc))
	if err != nil {
		return nil, err
	}

	var created *Reservation

	err = s.locker.WithDoctorLock(ctx, in.DoctorID, func(lockCtx context.Context) error {
		res, err := s.repo.InsertReservationIfFree(lockCtx, Reservation{
			DoctorID:  in.DoctorID,
			PatientID: in.PatientID,
			Interval:  interval,
			Reason:    in.Reason,
		})
		if err != nil {
			if errors.Is(err, ErrSlotConflict) {
				return err
			}
			return fmt.Errorf("insert reservation: %w", err)
		}

		created = res

		s.logEvent(lockCtx, res.ID, EventReservationCreated, map[string]any{
			"doctor_id":  in.DoctorID.String(),
			"patient_id": in.PatientID.String(),
			"starts_at":  interval.Start,
			"ends_at":    interval.End,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	// The caller gets its confirmation from here on; calendar sync and
	// email run in the background and cannot affect the reservation.
	s.reconciler.Enqueue(ReconcileJob{
		Reservation: *created,
		Doctor:      *doctor,
		Patient:     *patient,
	})

	return created, nil
}

// CancelReservation flips a reservation to cancelled. Cancelling an
// already-cancelled reservation is a no-op success.
func (s *Service) CancelReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, changed, err := s.repo.CancelReservation(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	if changed {
		s.logEvent(ctx, res.ID, EventReservationCancelled, map[string]any{
			"doctor_id": res.DoctorID.String(),
		})
	}

	return res, nil
}

// GetReservation retrieves a reservation by ID
func (s *Service) GetReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.repo.GetReservationByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (s *Service) logEvent(ctx context.Context, reservationID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	resID := reservationID

	ev := EventLog{
		EventType:     eventType,
		ReservationID: &resID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for reservation %s: %v", eventType, reservationID, err)
	}
}
