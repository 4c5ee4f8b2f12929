package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careconnect/scheduling/internal/booking"
)

const dateLayout = "2006-01-02"

func getAvailabilityHandler(svc *booking.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		dateStr := r.URL.Query().Get("date")
		date, err := time.ParseInLocation(dateLayout, dateStr, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		avail, err := svc.GetAvailability(r.Context(), doctorID, date)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		slots := make([]SlotResponse, 0, len(avail.Slots))
		for _, s := range avail.Slots {
			slots = append(slots, SlotResponse{
				Start: s.Interval.Start,
				End:   s.Interval.End,
				Label: s.Label,
			})
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorID:       doctorID,
			Date:           dateStr,
			WorkingHours:   avail.WorkingHours,
			AvailableSlots: slots,
			TotalSlots:     avail.TotalSlots,
		})
	}
}

func bookSlotHandler(svc *booking.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		date, err := time.ParseInLocation(dateLayout, req.Date, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		start, err := booking.ParseClockTime(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
			return
		}
		end, err := booking.ParseClockTime(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
			return
		}

		res, err := svc.BookSlot(r.Context(), booking.BookInput{
			DoctorID:  doctorID,
			PatientID: patientID,
			Date:      date,
			Start:     start,
			End:       end,
			Reason:    req.Reason,
		})
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

func getReservationHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		res, err := svc.GetReservation(r.Context(), id)
		if err != nil {
			handleReservationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func cancelReservationHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		res, err := svc.CancelReservation(r.Context(), id)
		if err != nil {
			handleReservationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CancelResponse{ID: res.ID, Status: string(res.Status)})
	}
}

func toReservationResponse(res *booking.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              res.ID,
		DoctorID:        res.DoctorID,
		PatientID:       res.PatientID,
		StartsAt:        res.Interval.Start,
		EndsAt:          res.Interval.End,
		Status:          string(res.Status),
		Reason:          res.Reason,
		SyncStatus:      string(res.SyncStatus),
		ExternalEventID: res.ExternalEventID,
	}
}

func handleAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "the requested slot was just taken, pick another slot")
	case errors.Is(err, booking.ErrBookingInProgress):
		writeError(w, http.StatusConflict, "booking_in_progress", "doctor is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "reservation_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
