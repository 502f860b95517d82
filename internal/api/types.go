package api

import (
	"time"

	"github.com/clinicware/clinic-booking/internal/clinic"
	"github.com/clinicware/clinic-booking/internal/wire"
)

// AppointmentRequest is the body of both POST and PUT /appointments. The id
// fields accept quoted or bare numbers; form clients send strings.
type AppointmentRequest struct {
	PatientID      wire.ID   `json:"patientId" validate:"required"`
	PractitionerID wire.ID   `json:"practitionerId" validate:"required"`
	StartDate      time.Time `json:"startDate" validate:"required"`
	EndDate        time.Time `json:"endDate" validate:"required"`
	AppointmentID  wire.ID   `json:"appointmentId,omitempty"`
}

type AppointmentResponse struct {
	ID             wire.ID   `json:"id"`
	PatientID      wire.ID   `json:"patientId"`
	PractitionerID wire.ID   `json:"practitionerId"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

type PatientResponse struct {
	ID        wire.ID `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
}

type PractitionerResponse struct {
	ID        wire.ID `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
}

type AvailabilityResponse struct {
	ID             wire.ID   `json:"id"`
	PractitionerID wire.ID   `json:"practitionerId"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             wire.ID(a.ID),
		PatientID:      wire.ID(a.PatientID),
		PractitionerID: wire.ID(a.PractitionerID),
		StartDate:      a.Start,
		EndDate:        a.End,
	}
}

func toPatientResponses(patients []clinic.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, PatientResponse{
			ID:        wire.ID(p.ID),
			FirstName: p.FirstName,
			LastName:  p.LastName,
		})
	}
	return out
}

func toPractitionerResponses(practitioners []clinic.Practitioner) []PractitionerResponse {
	out := make([]PractitionerResponse, 0, len(practitioners))
	for _, p := range practitioners {
		out = append(out, PractitionerResponse{
			ID:        wire.ID(p.ID),
			FirstName: p.FirstName,
			LastName:  p.LastName,
		})
	}
	return out
}

func toAvailabilityResponses(windows []clinic.Availability) []AvailabilityResponse {
	out := make([]AvailabilityResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, AvailabilityResponse{
			ID:             wire.ID(w.ID),
			PractitionerID: wire.ID(w.PractitionerID),
			StartDate:      w.Start,
			EndDate:        w.End,
		})
	}
	return out
}
