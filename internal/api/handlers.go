package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clinicware/clinic-booking/internal/clinic"
	redisclient "github.com/clinicware/clinic-booking/internal/redis"
	"github.com/clinicware/clinic-booking/internal/wire"
)

var validate = validator.New()

func listAppointmentsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListAppointments(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createAppointmentHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		appt, err := svc.BookAppointment(r.Context(), req.PatientID.Int64(), req.PractitionerID.Int64(), req.StartDate, req.EndDate)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		id, err := appointmentIDFromQuery(r, req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", err.Error())
			return
		}

		appt, err := svc.RescheduleAppointment(r.Context(), id, req.PatientID.Int64(), req.PractitionerID.Int64(), req.StartDate, req.EndDate)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := appointmentIDFromQuery(r, 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", err.Error())
			return
		}

		appt, err := svc.CancelAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, clinic.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		// Echo the deleted record so clients can drop it from their caches.
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listPatientsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponses(patients))
	}
}

func listPractitionersHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitioners, err := svc.ListPractitioners(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toPractitionerResponses(practitioners))
	}
}

func listAvailabilitiesHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("practitionerId")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "missing_practitioner_id", "practitionerId query parameter is required")
			return
		}

		practitionerID, err := wire.ParseID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", err.Error())
			return
		}

		windows, err := svc.ListAvailabilities(r.Context(), practitionerID)
		if err != nil {
			if errors.Is(err, clinic.ErrPractitionerNotFound) {
				writeError(w, http.StatusNotFound, "practitioner_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponses(windows))
	}
}

// appointmentIDFromQuery reads the appointmentId query parameter, falling
// back to the id carried in the request body.
func appointmentIDFromQuery(r *http.Request, bodyID wire.ID) (int64, error) {
	raw := r.URL.Query().Get("appointmentId")
	if raw == "" {
		if bodyID != 0 {
			return bodyID.Int64(), nil
		}
		return 0, errors.New("appointmentId query parameter is required")
	}
	return wire.ParseID(raw)
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, clinic.ErrPractitionerNotFound):
		writeError(w, http.StatusNotFound, "practitioner_not_found", err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, clinic.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
	case errors.Is(err, clinic.ErrWindowNotOffered):
		writeError(w, http.StatusUnprocessableEntity, "window_not_offered", err.Error())
	case errors.Is(err, clinic.ErrWindowAlreadyBooked):
		writeError(w, http.StatusConflict, "window_already_booked", err.Error())
	case errors.Is(err, clinic.ErrWindowBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "window_being_booked", "window is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
