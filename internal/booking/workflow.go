// Package booking drives the appointment booking form: practitioner, day,
// slot and patient selection, the validation gate, and submission of create
// and reschedule requests. It owns the Selection state and the availability
// cache for the currently chosen practitioner.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clinicware/clinic-booking/internal/clinic"
	"github.com/clinicware/clinic-booking/internal/schedule"
	"github.com/clinicware/clinic-booking/internal/store"
)

// Notification texts shown to the user after an operation settles.
const (
	MsgAdded   = "Appointment added successfully"
	MsgUpdated = "Appointment updated successfully"
	MsgFailed  = "Something went wrong!"
)

var (
	ErrNoPractitioner  = errors.New("no practitioner selected")
	ErrNoDay           = errors.New("no day selected")
	ErrSlotUnavailable = errors.New("selected time slot is no longer offered")
)

// AvailabilityProvider supplies the windows a practitioner currently offers.
type AvailabilityProvider interface {
	Availabilities(ctx context.Context, practitionerID int64) ([]clinic.Availability, error)
}

// AppointmentAPI issues the appointment mutations backing a submission.
type AppointmentAPI interface {
	CreateAppointment(ctx context.Context, patientID, practitionerID int64, start, end time.Time) (*clinic.Appointment, error)
	UpdateAppointment(ctx context.Context, appointmentID, patientID, practitionerID int64, start, end time.Time) (*clinic.Appointment, error)
}

// Notifier surfaces transient, dismissible messages to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Selection is the in-progress, unpersisted set of user choices while a
// booking or edit form is open.
type Selection struct {
	PractitionerID int64
	PatientID      int64
	Day            string
	SlotID         int64
}

// ValidationError reports the empty required fields at submission time.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d selection field(s) blank", len(e.Fields))
}

// Per-field validation messages, keyed by form field name.
const (
	FieldPractitioner = "practitioner"
	FieldPatient      = "patient"
	FieldDay          = "day"
	FieldTimeSlot     = "timeSlot"
)

var fieldMessages = map[string]string{
	FieldPractitioner: "Practitioner can't be blank.",
	FieldPatient:      "Patient can't be blank.",
	FieldDay:          "Day can't be blank.",
	FieldTimeSlot:     "Time slot can't be blank.",
}

// Workflow orchestrates one booking or edit form. It is not safe for
// concurrent use; a form is driven by a single flow of control.
type Workflow struct {
	provider AvailabilityProvider
	api      AppointmentAPI
	store    *store.Store
	notify   Notifier
	logger   *zap.Logger

	sel     Selection
	windows []clinic.Availability
	editing *clinic.Appointment
}

func NewWorkflow(provider AvailabilityProvider, api AppointmentAPI, st *store.Store, notify Notifier, logger *zap.Logger) *Workflow {
	return &Workflow{
		provider: provider,
		api:      api,
		store:    st,
		notify:   notify,
		logger:   logger,
	}
}

// Selection returns the current form state.
func (w *Workflow) Selection() Selection {
	return w.sel
}

// Editing reports the appointment being rescheduled, or nil on the create
// path.
func (w *Workflow) Editing() *clinic.Appointment {
	return w.editing
}

// Days returns the bookable days derived from the cached availability set.
func (w *Workflow) Days() []string {
	if w.sel.PractitionerID == 0 {
		return nil
	}
	return schedule.DeriveDays(w.windows)
}

// Slots returns the time slots for the chosen day, in provider order.
func (w *Workflow) Slots() []clinic.Availability {
	return schedule.SlotsForDay(w.windows, w.sel.Day)
}

// Windows returns the full availability set cached for the chosen
// practitioner. The edit form lists all of them, not only the chosen day's.
func (w *Workflow) Windows() []clinic.Availability {
	return w.windows
}

// ChoosePractitioner selects a practitioner, clears the day and slot
// selections, and refreshes the availability cache. An empty (zero) id
// clears the cache without fetching. A fetch failure is reported to the user
// and leaves the form showing no availabilities.
func (w *Workflow) ChoosePractitioner(ctx context.Context, id int64) error {
	w.sel.PractitionerID = id
	w.sel.Day = ""
	w.sel.SlotID = 0

	if id == 0 {
		w.windows = nil
		return nil
	}

	windows, err := w.provider.Availabilities(ctx, id)
	if err != nil {
		w.ApplyAvailabilities(id, nil)
		w.notify.Notify(MsgFailed)
		w.logger.Warn("availability fetch failed", zap.Int64("practitioner_id", id), zap.Error(err))
		return fmt.Errorf("fetch availabilities: %w", err)
	}

	w.ApplyAvailabilities(id, windows)
	return nil
}

// ApplyAvailabilities installs a fetched availability set. Each fetch is
// tagged with the practitioner it was issued for; a response arriving after
// the user has moved on to another practitioner is discarded so it cannot
// overwrite the current derivation.
func (w *Workflow) ApplyAvailabilities(practitionerID int64, windows []clinic.Availability) {
	if practitionerID != w.sel.PractitionerID {
		w.logger.Debug("discarding stale availability response",
			zap.Int64("requested_for", practitionerID),
			zap.Int64("selected", w.sel.PractitionerID),
		)
		return
	}
	w.windows = windows
}

// ChooseDay selects a day and clears the slot selection. A practitioner must
// already be chosen; day options derive solely from its availabilities.
func (w *Workflow) ChooseDay(day string) error {
	if w.sel.PractitionerID == 0 {
		return ErrNoPractitioner
	}
	w.sel.Day = day
	w.sel.SlotID = 0
	return nil
}

// ChooseSlot selects a time slot. A day must already be chosen.
func (w *Workflow) ChooseSlot(slotID int64) error {
	if w.sel.Day == "" {
		return ErrNoDay
	}
	w.sel.SlotID = slotID
	return nil
}

// ChoosePatient selects a patient; valid in any state.
func (w *Workflow) ChoosePatient(id int64) {
	w.sel.PatientID = id
}

// StartEdit opens the edit path for an existing appointment: the form is
// preselected from the record and the practitioner's currently offered
// windows are fetched. The slot preselects only when a window matches the
// appointment's stored start and end instants; otherwise it stays empty and
// the user must pick a new slot.
func (w *Workflow) StartEdit(ctx context.Context, appt clinic.Appointment) error {
	w.editing = &appt
	w.windows = nil
	w.sel = Selection{
		PractitionerID: appt.PractitionerID,
		PatientID:      appt.PatientID,
	}

	windows, err := w.provider.Availabilities(ctx, appt.PractitionerID)
	if err != nil {
		w.notify.Notify(MsgFailed)
		w.logger.Warn("availability fetch failed",
			zap.Int64("practitioner_id", appt.PractitionerID), zap.Error(err))
		return fmt.Errorf("fetch availabilities: %w", err)
	}

	w.ApplyAvailabilities(appt.PractitionerID, windows)
	w.reconcile()
	return nil
}

// reconcile matches the edited appointment's stored times against the
// fetched windows. The original window may have been withdrawn since the
// appointment was created; in that case no slot is preselected.
func (w *Workflow) reconcile() {
	if w.editing == nil {
		return
	}
	for _, win := range w.windows {
		if win.Start.Equal(w.editing.Start) && win.End.Equal(w.editing.End) {
			w.sel.SlotID = win.ID
			w.sel.Day = schedule.DayOf(win.Start)
			return
		}
	}
}

// Validate checks the required selections for the current mode. The edit
// form has no day field; day is implied by the chosen slot.
func (w *Workflow) Validate() *ValidationError {
	fields := make(map[string]string)

	if w.sel.PractitionerID == 0 {
		fields[FieldPractitioner] = fieldMessages[FieldPractitioner]
	}
	if w.sel.PatientID == 0 {
		fields[FieldPatient] = fieldMessages[FieldPatient]
	}
	if w.editing == nil && w.sel.Day == "" {
		fields[FieldDay] = fieldMessages[FieldDay]
	}
	if w.sel.SlotID == 0 {
		fields[FieldTimeSlot] = fieldMessages[FieldTimeSlot]
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Submit validates the selections and issues the create or update request.
// The payload is taken verbatim from the resolved availability window, never
// from independently re-derived dates. On success the store is updated from
// the server response and the form resets; on failure the selections stay
// intact so the user may retry.
func (w *Workflow) Submit(ctx context.Context) (*clinic.Appointment, error) {
	if verr := w.Validate(); verr != nil {
		return nil, verr
	}

	window := w.findWindow(w.sel.SlotID)
	if window == nil {
		w.notify.Notify(MsgFailed)
		return nil, ErrSlotUnavailable
	}

	if w.editing != nil {
		return w.submitUpdate(ctx, window)
	}
	return w.submitCreate(ctx, window)
}

func (w *Workflow) submitCreate(ctx context.Context, window *clinic.Availability) (*clinic.Appointment, error) {
	w.store.Begin()

	appt, err := w.api.CreateAppointment(ctx, w.sel.PatientID, w.sel.PractitionerID, window.Start, window.End)
	if err != nil {
		w.store.Fail(err)
		w.notify.Notify(MsgFailed)
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	w.store.AddOne(*appt)
	w.notify.Notify(MsgAdded)
	w.Reset()
	return appt, nil
}

func (w *Workflow) submitUpdate(ctx context.Context, window *clinic.Availability) (*clinic.Appointment, error) {
	w.store.Begin()

	appt, err := w.api.UpdateAppointment(ctx, w.editing.ID, w.sel.PatientID, w.sel.PractitionerID, window.Start, window.End)
	if err != nil {
		w.store.Fail(err)
		w.notify.Notify(MsgFailed)
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	w.store.UpsertOne(*appt)
	w.notify.Notify(MsgUpdated)
	w.Reset()
	return appt, nil
}

// Cancel discards all in-progress selections with no side effects.
func (w *Workflow) Cancel() {
	w.Reset()
}

// Reset returns the form to its initial empty state.
func (w *Workflow) Reset() {
	w.sel = Selection{}
	w.windows = nil
	w.editing = nil
}

func (w *Workflow) findWindow(slotID int64) *clinic.Availability {
	for i := range w.windows {
		if w.windows[i].ID == slotID {
			return &w.windows[i]
		}
	}
	return nil
}
