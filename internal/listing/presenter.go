// Package listing presents the appointment collection: each record joined
// with its patient and practitioner identity, free-text filtering, and
// deletion.
package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/clinicware/clinic-booking/internal/clinic"
	"github.com/clinicware/clinic-booking/internal/store"
)

const (
	msgDeleted = "Appointment #%d deleted successfully"
	msgFailed  = "Something went wrong!"
)

// API is the slice of the REST client the presenter needs.
type API interface {
	Appointments(ctx context.Context) ([]clinic.Appointment, error)
	Patients(ctx context.Context) ([]clinic.Patient, error)
	Practitioners(ctx context.Context) ([]clinic.Practitioner, error)
	DeleteAppointment(ctx context.Context, appointmentID int64) (*clinic.Appointment, error)
}

// Notifier surfaces transient, dismissible messages to the user.
type Notifier interface {
	Notify(message string)
}

// Entry is one appointment annotated with its resolved patient and
// practitioner records.
type Entry struct {
	Appointment  clinic.Appointment
	Patient      clinic.Patient
	Practitioner clinic.Practitioner
}

type Presenter struct {
	api    API
	store  *store.Store
	notify Notifier
	logger *zap.Logger

	patients      map[int64]clinic.Patient
	practitioners map[int64]clinic.Practitioner
}

func NewPresenter(api API, st *store.Store, notify Notifier, logger *zap.Logger) *Presenter {
	return &Presenter{
		api:           api,
		store:         st,
		notify:        notify,
		logger:        logger,
		patients:      make(map[int64]clinic.Patient),
		practitioners: make(map[int64]clinic.Practitioner),
	}
}

// Refresh loads the appointment collection into the store and refreshes the
// patient and practitioner directories used for the join.
func (p *Presenter) Refresh(ctx context.Context) error {
	p.store.Begin()

	appts, err := p.api.Appointments(ctx)
	if err != nil {
		p.store.Fail(err)
		return fmt.Errorf("fetch appointments: %w", err)
	}
	p.store.SetAll(appts)

	patients, err := p.api.Patients(ctx)
	if err != nil {
		return fmt.Errorf("fetch patients: %w", err)
	}
	practitioners, err := p.api.Practitioners(ctx)
	if err != nil {
		return fmt.Errorf("fetch practitioners: %w", err)
	}

	p.patients = make(map[int64]clinic.Patient, len(patients))
	for _, pt := range patients {
		p.patients[pt.ID] = pt
	}
	p.practitioners = make(map[int64]clinic.Practitioner, len(practitioners))
	for _, pr := range practitioners {
		p.practitioners[pr.ID] = pr
	}

	return nil
}

// Entries joins the stored appointments with their patient and practitioner
// records. A record whose references cannot be resolved has no identity to
// display and is excluded.
func (p *Presenter) Entries() []Entry {
	appts := p.store.All()
	entries := make([]Entry, 0, len(appts))

	for _, a := range appts {
		patient, ok := p.patients[a.PatientID]
		if !ok {
			p.logger.Warn("appointment references unknown patient",
				zap.Int64("appointment_id", a.ID), zap.Int64("patient_id", a.PatientID))
			continue
		}
		practitioner, ok := p.practitioners[a.PractitionerID]
		if !ok {
			p.logger.Warn("appointment references unknown practitioner",
				zap.Int64("appointment_id", a.ID), zap.Int64("practitioner_id", a.PractitionerID))
			continue
		}
		entries = append(entries, Entry{
			Appointment:  a,
			Patient:      patient,
			Practitioner: practitioner,
		})
	}

	return entries
}

// Filter retains entries whose appointment id (as decimal text), patient
// "first last" name, or practitioner "first last" name contains the query as
// a case-insensitive substring. An empty query returns the full collection.
func (p *Presenter) Filter(query string) []Entry {
	entries := p.Entries()
	if query == "" {
		return entries
	}

	lower := strings.ToLower(query)
	matched := make([]Entry, 0, len(entries))
	for _, e := range entries {
		id := strconv.FormatInt(e.Appointment.ID, 10)
		patient := strings.ToLower(e.Patient.FirstName + " " + e.Patient.LastName)
		practitioner := strings.ToLower(e.Practitioner.FirstName + " " + e.Practitioner.LastName)

		if strings.Contains(id, query) ||
			strings.Contains(patient, lower) ||
			strings.Contains(practitioner, lower) {
			matched = append(matched, e)
		}
	}

	return matched
}

// Delete removes an appointment. On failure the store is left unchanged so
// the record stays visible.
func (p *Presenter) Delete(ctx context.Context, id int64) error {
	p.store.Begin()

	deleted, err := p.api.DeleteAppointment(ctx, id)
	if err != nil {
		p.store.Fail(err)
		p.notify.Notify(msgFailed)
		return fmt.Errorf("delete appointment: %w", err)
	}

	p.store.RemoveOne(deleted.ID)
	p.notify.Notify(fmt.Sprintf(msgDeleted, deleted.ID))
	return nil
}
