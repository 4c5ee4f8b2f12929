package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/careconnect/scheduling/internal/calendar"
	"github.com/careconnect/scheduling/internal/notify"
)

// ReconcileJob carries everything the pipeline needs so it never has to
// re-read the ledger for data that cannot change.
type ReconcileJob struct {
	Reservation Reservation
	Doctor      Doctor
	Patient     Patient
}

// Reconciler performs the best-effort follow-up after a booking commits:
// push the reservation to the external calendar, then publish the email
// confirmation. Each step fails independently; neither can touch the
// reservation's confirmed status. Jobs run on context.Background so a
// closed request connection never cancels them.
type Reconciler struct {
	repo     Repository
	cal      calendar.Client
	notifier notify.Notifier

	jobs    chan ReconcileJob
	wg      sync.WaitGroup
	timeout time.Duration

	closeOnce sync.Once
}

func NewReconciler(repo Repository, cal calendar.Client, notifier notify.Notifier) *Reconciler {
	return &Reconciler{
		repo:     repo,
		cal:      cal,
		notifier: notifier,
		jobs:     make(chan ReconcileJob, 64),
		timeout:  30 * time.Second,
	}
}

// Start launches the worker goroutine draining the job queue.
func (r *Reconciler) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for job := range r.jobs {
			r.process(job)
		}
	}()
}

// Enqueue hands a confirmed reservation to the pipeline without blocking
// the booking response. If the queue is full the job runs on its own
// goroutine rather than being dropped.
func (r *Reconciler) Enqueue(job ReconcileJob) {
	select {
	case r.jobs <- job:
	default:
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.process(job)
		}()
	}
}

// Close stops accepting jobs and waits for in-flight work to finish.
func (r *Reconciler) Close() {
	r.closeOnce.Do(func() {
		close(r.jobs)
	})
	r.wg.Wait()
}

func (r *Reconciler) process(job ReconcileJob) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	status, externalEventID := r.syncToCalendar(ctx, job)

	if err := r.repo.UpdateSyncStatus(ctx, job.Reservation.ID, status, externalEventID); err != nil {
		log.Printf("failed to record sync status %s for reservation %s: %v", status, job.Reservation.ID, err)
	}
	r.logSyncEvent(ctx, job, status)

	r.sendConfirmation(ctx, job)
}

func (r *Reconciler) syncToCalendar(ctx context.Context, job ReconcileJob) (SyncStatus, *string) {
	if job.Doctor.CalendarID == nil || *job.Doctor.CalendarID == "" {
		return SyncSkipped, nil
	}

	ev := calendar.Event{
		Summary:     fmt.Sprintf("Appointment: %s", job.Patient.Name),
		Description: job.Reservation.Reason,
		Start:       job.Reservation.Interval.Start,
		End:         job.Reservation.Interval.End,
	}
	if job.Patient.Email != nil {
		ev.Attendees = []string{*job.Patient.Email}
	}

	eventID, err := r.cal.CreateEvent(ctx, *job.Doctor.CalendarID, ev)
	if err != nil {
		if errors.Is(err, calendar.ErrNotConfigured) {
			return SyncSkipped, nil
		}
		log.Printf("calendar sync failed for reservation %s: %v", job.Reservation.ID, err)
		return SyncFailed, nil
	}

	return SyncSynced, &eventID
}

func (r *Reconciler) sendConfirmation(ctx context.Context, job ReconcileJob) {
	recipient := ""
	if job.Patient.Email != nil {
		recipient = *job.Patient.Email
	}

	outcome, err := r.notifier.SendConfirmation(ctx, notify.Confirmation{
		Recipient:     recipient,
		PatientName:   job.Patient.Name,
		DoctorName:    job.Doctor.Name,
		StartsAt:      job.Reservation.Interval.Start,
		EndsAt:        job.Reservation.Interval.End,
		ReservationID: job.Reservation.ID.String(),
	})
	if err != nil {
		log.Printf("confirmation email for reservation %s not sent: %v", job.Reservation.ID, err)
		return
	}
	if outcome != notify.OutcomeSent {
		log.Printf("confirmation email for reservation %s: %s", job.Reservation.ID, outcome)
	}
}

func (r *Reconciler) logSyncEvent(ctx context.Context, job ReconcileJob, status SyncStatus) {
	payload, err := json.Marshal(map[string]any{"sync_status": string(status)})
	if err != nil {
		payload = nil
	}

	resID := job.Reservation.ID
	ev := EventLog{
		EventType:     EventSyncCompleted,
		ReservationID: &resID,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
	if err := r.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert sync event for reservation %s: %v", job.Reservation.ID, err)
	}
}
