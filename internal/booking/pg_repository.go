package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// exclusionViolation is the pg error code raised by the
// reservations_no_overlap constraint.
const exclusionViolation = "23P01"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty, email, calendarID *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&specialty,
		&email,
		&calendarID,
		&d.SlotMinutes,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	d.Email = email
	d.CalendarID = calendarID
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	return &p, nil
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	var externalEventID *string

	err := row.Scan(
		&r.ID,
		&r.DoctorID,
		&r.PatientID,
		&r.Interval.Start,
		&r.Interval.End,
		&r.Status,
		&r.Reason,
		&r.SyncStatus,
		&externalEventID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	r.ExternalEventID = externalEventID
	return &r, nil
}

const reservationColumns = `id, doctor_id, patient_id, starts_at, ends_at, status, reason, external_sync_status, external_event_id, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, email, calendar_id, slot_minutes, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetWorkingWindow(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*WorkingWindow, error) {
	var isAvailable bool
	var startMinute, endMinute int

	err := r.pool.QueryRow(ctx, `
		SELECT is_available, start_minute, end_minute
		FROM doctor_schedules
		WHERE doctor_id = $1 AND weekday = $2
	`, doctorID, int(weekday)).Scan(&isAvailable, &startMinute, &endMinute)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &WorkingWindow{Weekday: weekday, IsAvailable: false}, nil
		}
		return nil, err
	}

	start, err := ClockTimeFromMinutes(startMinute)
	if err != nil {
		return nil, fmt.Errorf("schedule start for doctor %s: %w", doctorID, err)
	}
	end, err := ClockTimeFromMinutes(endMinute)
	if err != nil {
		return nil, fmt.Errorf("schedule end for doctor %s: %w", doctorID, err)
	}

	return &WorkingWindow{
		Weekday:     weekday,
		IsAvailable: isAvailable,
		Start:       start,
		End:         end,
	}, nil
}

func (r *PgRepository) ListConfirmedReservations(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE doctor_id = $1
		  AND status = 'confirmed'
		  AND starts_at < $3
		  AND ends_at > $2
		ORDER BY starts_at ASC
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
	`, id)
	return scanReservation(row)
}

// InsertReservationIfFree relies on the reservations_no_overlap exclusion
// constraint: the insert and the overlap check are a single atomic step,
// so the invariant holds across processes without any in-process lock.
func (r *PgRepository) InsertReservationIfFree(ctx context.Context, res Reservation) (*Reservation, error) {
	id := res.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO reservations (id, doctor_id, patient_id, starts_at, ends_at, status, reason, external_sync_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'confirmed', $6, 'pending', now(), now())
		RETURNING `+reservationColumns+`
	`, id, res.DoctorID, res.PatientID, res.Interval.Start, res.Interval.End, res.Reason)

	created, err := scanReservation(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) CancelReservation(ctx context.Context, id uuid.UUID) (*Reservation, bool, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE reservations
		SET status = 'cancelled',
		    updated_at = now()
		WHERE id = $1
		  AND status = 'confirmed'
		RETURNING `+reservationColumns+`
	`, id)

	cancelled, err := scanReservation(row)
	if err == nil {
		return cancelled, true, nil
	}
	if !errors.Is(err, ErrReservationNotFound) {
		return nil, false, err
	}

	// No confirmed row was flipped: either the reservation does not exist
	// or it was already cancelled, which is a no-op success.
	existing, err := r.GetReservationByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PgRepository) UpdateSyncStatus(ctx context.Context, id uuid.UUID, status SyncStatus, externalEventID *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reservations
		SET external_sync_status = $2,
		    external_event_id = COALESCE($3, external_event_id),
		    updated_at = now()
		WHERE id = $1
		  AND external_sync_status = 'pending'
	`, id, status, externalEventID)
	if err != nil {
		return fmt.Errorf("update sync status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not in pending sync state", id)
	}

	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, reservation_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.ReservationID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
