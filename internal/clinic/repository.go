package clinic

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrPractitionerNotFound = errors.New("practitioner not found")
	ErrWindowNotFound       = errors.New("availability window not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetPatientByID(ctx context.Context, id int64) (*Patient, error)
	GetPractitionerByID(ctx context.Context, id int64) (*Practitioner, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	ListPractitioners(ctx context.Context) ([]Practitioner, error)

	// Availability windows, scoped by practitioner, ordered by start.
	ListAvailabilities(ctx context.Context, practitionerID int64) ([]Availability, error)
	GetAvailabilityByTimes(ctx context.Context, practitionerID int64, start, end time.Time) (*Availability, error)
	DeleteEndedAvailabilities(ctx context.Context, now time.Time) (int64, error)

	// For conflict checks
	GetAppointmentForWindow(ctx context.Context, practitionerID int64, start, end time.Time) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error)

	ListAppointments(ctx context.Context) ([]Appointment, error)
	CreateAppointment(ctx context.Context, patientID, practitionerID int64, start, end time.Time) (*Appointment, error)
	UpdateAppointment(ctx context.Context, id, patientID, practitionerID int64, start, end time.Time) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) (*Appointment, error)
}
