package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicware/clinic-booking/internal/clinic"
	"github.com/clinicware/clinic-booking/internal/store"
)

type fakeProvider struct {
	windows map[int64][]clinic.Availability
	err     error
	calls   int
}

func (f *fakeProvider) Availabilities(ctx context.Context, practitionerID int64) ([]clinic.Availability, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.windows[practitionerID], nil
}

type fakeAPI struct {
	nextID      int64
	createErr   error
	updateErr   error
	createCalls int
	updateCalls int
	lastStart   time.Time
	lastEnd     time.Time
}

func (f *fakeAPI) CreateAppointment(ctx context.Context, patientID, practitionerID int64, start, end time.Time) (*clinic.Appointment, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastStart, f.lastEnd = start, end
	f.nextID++
	return &clinic.Appointment{
		ID:             f.nextID,
		PatientID:      patientID,
		PractitionerID: practitionerID,
		Start:          start,
		End:            end,
	}, nil
}

func (f *fakeAPI) UpdateAppointment(ctx context.Context, appointmentID, patientID, practitionerID int64, start, end time.Time) (*clinic.Appointment, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.lastStart, f.lastEnd = start, end
	return &clinic.Appointment{
		ID:             appointmentID,
		PatientID:      patientID,
		PractitionerID: practitionerID,
		Start:          start,
		End:            end,
	}, nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func availability(id, practitionerID int64, start, end time.Time) clinic.Availability {
	return clinic.Availability{ID: id, PractitionerID: practitionerID, Start: start, End: end}
}

func newTestWorkflow(provider *fakeProvider, api *fakeAPI) (*Workflow, *store.Store, *recordingNotifier) {
	st := store.New()
	notifier := &recordingNotifier{}
	wf := NewWorkflow(provider, api, st, notifier, zap.NewNop())
	return wf, st, notifier
}

func janReferenceWindows(t *testing.T) []clinic.Availability {
	return []clinic.Availability{
		availability(11, 1, mustTime(t, "2024-01-10T09:00:00Z"), mustTime(t, "2024-01-10T09:30:00Z")),
		availability(12, 1, mustTime(t, "2024-01-10T10:00:00Z"), mustTime(t, "2024-01-10T10:30:00Z")),
	}
}

func TestChoosePractitionerClearsDayAndSlot(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{
		1: janReferenceWindows(t),
		2: {availability(21, 2, mustTime(t, "2024-02-01T09:00:00Z"), mustTime(t, "2024-02-01T09:30:00Z"))},
	}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	ctx := context.Background()
	require.NoError(t, wf.ChoosePractitioner(ctx, 1))
	require.NoError(t, wf.ChooseDay("2024-01-10"))
	require.NoError(t, wf.ChooseSlot(11))

	require.NoError(t, wf.ChoosePractitioner(ctx, 2))

	sel := wf.Selection()
	assert.Equal(t, int64(2), sel.PractitionerID)
	assert.Empty(t, sel.Day)
	assert.Zero(t, sel.SlotID)
}

func TestChoosePractitionerEmptyClearsWithoutFetch(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	ctx := context.Background()
	require.NoError(t, wf.ChoosePractitioner(ctx, 1))
	fetchesSoFar := provider.calls

	require.NoError(t, wf.ChoosePractitioner(ctx, 0))

	assert.Equal(t, fetchesSoFar, provider.calls)
	assert.Empty(t, wf.Days())
	assert.Empty(t, wf.Windows())
}

func TestChooseDayRequiresPractitioner(t *testing.T) {
	wf, _, _ := newTestWorkflow(&fakeProvider{}, &fakeAPI{})
	assert.ErrorIs(t, wf.ChooseDay("2024-01-10"), ErrNoPractitioner)
}

func TestChooseSlotRequiresDay(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	require.NoError(t, wf.ChoosePractitioner(context.Background(), 1))
	assert.ErrorIs(t, wf.ChooseSlot(11), ErrNoDay)
}

func TestChooseDayClearsSlot(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	ctx := context.Background()
	require.NoError(t, wf.ChoosePractitioner(ctx, 1))
	require.NoError(t, wf.ChooseDay("2024-01-10"))
	require.NoError(t, wf.ChooseSlot(11))

	require.NoError(t, wf.ChooseDay("2024-01-10"))
	assert.Zero(t, wf.Selection().SlotID)
}

func TestStaleAvailabilityResponseDiscarded(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{
		1: janReferenceWindows(t),
		2: {availability(21, 2, mustTime(t, "2024-02-01T09:00:00Z"), mustTime(t, "2024-02-01T09:30:00Z"))},
	}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	require.NoError(t, wf.ChoosePractitioner(context.Background(), 2))

	// A response for practitioner 1 lands after the user switched to 2.
	wf.ApplyAvailabilities(1, janReferenceWindows(t))

	days := wf.Days()
	require.Len(t, days, 1)
	assert.Equal(t, "2024-02-01", days[0])
}

func TestValidateReportsEveryBlankField(t *testing.T) {
	api := &fakeAPI{}
	wf, _, _ := newTestWorkflow(&fakeProvider{}, api)

	_, err := wf.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, "Practitioner can't be blank.", verr.Fields[FieldPractitioner])
	assert.Equal(t, "Patient can't be blank.", verr.Fields[FieldPatient])
	assert.Equal(t, "Day can't be blank.", verr.Fields[FieldDay])
	assert.Equal(t, "Time slot can't be blank.", verr.Fields[FieldTimeSlot])

	// No network call was issued
	assert.Zero(t, api.createCalls)
	assert.Zero(t, api.updateCalls)
}

func TestValidatePartialSelection(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	api := &fakeAPI{}
	wf, _, _ := newTestWorkflow(provider, api)

	ctx := context.Background()
	require.NoError(t, wf.ChoosePractitioner(ctx, 1))
	require.NoError(t, wf.ChooseDay("2024-01-10"))

	_, err := wf.Submit(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	assert.NotContains(t, verr.Fields, FieldPractitioner)
	assert.NotContains(t, verr.Fields, FieldDay)
	assert.Contains(t, verr.Fields, FieldPatient)
	assert.Contains(t, verr.Fields, FieldTimeSlot)
	assert.Zero(t, api.createCalls)
}

func TestCreatePathEndToEnd(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	api := &fakeAPI{}
	wf, st, notifier := newTestWorkflow(provider, api)

	ctx := context.Background()
	require.NoError(t, wf.ChoosePractitioner(ctx, 1))

	days := wf.Days()
	require.Equal(t, []string{"2024-01-10"}, days)

	require.NoError(t, wf.ChooseDay(days[0]))
	slots := wf.Slots()
	require.Len(t, slots, 2)

	require.NoError(t, wf.ChooseSlot(slots[0].ID))
	wf.ChoosePatient(42)

	appt, err := wf.Submit(ctx)
	require.NoError(t, err)

	// Payload comes verbatim from the selected window
	assert.Equal(t, mustTime(t, "2024-01-10T09:00:00Z"), appt.Start)
	assert.Equal(t, mustTime(t, "2024-01-10T09:30:00Z"), appt.End)
	assert.Equal(t, int64(42), appt.PatientID)
	assert.Equal(t, int64(1), appt.PractitionerID)

	_, ok := st.Get(appt.ID)
	assert.True(t, ok)
	assert.Equal(t, []string{MsgAdded}, notifier.messages)

	// Selection resets on success
	assert.Equal(t, Selection{}, wf.Selection())
}

func TestCreateFailureKeepsSelections(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	api := &fakeAPI{createErr: errors.New("server unavailable")}
	wf, st, notifier := newTestWorkflow(provider, api)

	ctx := context.Background()
	require.NoError(t, wf.ChoosePractitioner(ctx, 1))
	require.NoError(t, wf.ChooseDay("2024-01-10"))
	require.NoError(t, wf.ChooseSlot(11))
	wf.ChoosePatient(42)

	before := wf.Selection()
	_, err := wf.Submit(ctx)
	require.Error(t, err)

	assert.Equal(t, before, wf.Selection())
	assert.Zero(t, st.Len())
	assert.Equal(t, []string{MsgFailed}, notifier.messages)
}

func TestAvailabilityFetchFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	wf, _, notifier := newTestWorkflow(provider, &fakeAPI{})

	err := wf.ChoosePractitioner(context.Background(), 1)
	require.Error(t, err)

	assert.Empty(t, wf.Days())
	assert.Equal(t, []string{MsgFailed}, notifier.messages)
}

func TestStartEditReconciliationHit(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	appt := clinic.Appointment{
		ID:             7,
		PatientID:      42,
		PractitionerID: 1,
		Start:          mustTime(t, "2024-01-10T10:00:00Z"),
		End:            mustTime(t, "2024-01-10T10:30:00Z"),
	}

	require.NoError(t, wf.StartEdit(context.Background(), appt))

	sel := wf.Selection()
	assert.Equal(t, int64(12), sel.SlotID)
	assert.Equal(t, int64(1), sel.PractitionerID)
	assert.Equal(t, int64(42), sel.PatientID)
}

func TestStartEditReconciliationMiss(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	// The original window was withdrawn; stored times match nothing.
	appt := clinic.Appointment{
		ID:             7,
		PatientID:      42,
		PractitionerID: 1,
		Start:          mustTime(t, "2024-01-09T10:00:00Z"),
		End:            mustTime(t, "2024-01-09T10:30:00Z"),
	}

	require.NoError(t, wf.StartEdit(context.Background(), appt))
	assert.Zero(t, wf.Selection().SlotID)

	// The validation gate then requires the user to pick a new slot.
	_, err := wf.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, FieldTimeSlot)
}

func TestStartEditMatchRequiresBothInstants(t *testing.T) {
	// A window sharing only the start instant must not preselect.
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{
		1: {availability(11, 1, mustTime(t, "2024-01-10T09:00:00Z"), mustTime(t, "2024-01-10T10:00:00Z"))},
	}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	appt := clinic.Appointment{
		ID:             7,
		PatientID:      42,
		PractitionerID: 1,
		Start:          mustTime(t, "2024-01-10T09:00:00Z"),
		End:            mustTime(t, "2024-01-10T09:30:00Z"),
	}

	require.NoError(t, wf.StartEdit(context.Background(), appt))
	assert.Zero(t, wf.Selection().SlotID)
}

func TestEditSubmitUpdatesStoreByID(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	api := &fakeAPI{}
	wf, st, notifier := newTestWorkflow(provider, api)

	original := clinic.Appointment{
		ID:             7,
		PatientID:      42,
		PractitionerID: 1,
		Start:          mustTime(t, "2024-01-10T09:00:00Z"),
		End:            mustTime(t, "2024-01-10T09:30:00Z"),
	}
	st.SetAll([]clinic.Appointment{original})

	ctx := context.Background()
	require.NoError(t, wf.StartEdit(ctx, original))

	// Move the appointment to the later slot
	require.NoError(t, wf.ChooseDay("2024-01-10"))
	require.NoError(t, wf.ChooseSlot(12))

	updated, err := wf.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(7), updated.ID)
	assert.Equal(t, 1, api.updateCalls)
	assert.Zero(t, api.createCalls)

	stored, ok := st.Get(7)
	require.True(t, ok)
	assert.Equal(t, mustTime(t, "2024-01-10T10:00:00Z"), stored.Start)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, []string{MsgUpdated}, notifier.messages)
}

func TestEditChangePractitionerClearsDayAndSlot(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{
		1: janReferenceWindows(t),
		2: {availability(21, 2, mustTime(t, "2024-02-01T09:00:00Z"), mustTime(t, "2024-02-01T09:30:00Z"))},
	}}
	wf, _, _ := newTestWorkflow(provider, &fakeAPI{})

	appt := clinic.Appointment{
		ID:             7,
		PatientID:      42,
		PractitionerID: 1,
		Start:          mustTime(t, "2024-01-10T09:00:00Z"),
		End:            mustTime(t, "2024-01-10T09:30:00Z"),
	}

	ctx := context.Background()
	require.NoError(t, wf.StartEdit(ctx, appt))
	require.NotZero(t, wf.Selection().SlotID)

	require.NoError(t, wf.ChoosePractitioner(ctx, 2))

	sel := wf.Selection()
	assert.Empty(t, sel.Day)
	assert.Zero(t, sel.SlotID)
	// Still the edit path
	require.NotNil(t, wf.Editing())
	assert.Equal(t, int64(7), wf.Editing().ID)
}

func TestCancelDiscardsSelections(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	api := &fakeAPI{}
	wf, st, _ := newTestWorkflow(provider, api)

	ctx := context.Background()
	require.NoError(t, wf.ChoosePractitioner(ctx, 1))
	require.NoError(t, wf.ChooseDay("2024-01-10"))
	wf.Cancel()

	assert.Equal(t, Selection{}, wf.Selection())
	assert.Zero(t, api.createCalls)
	assert.Zero(t, st.Len())
}

func TestSubmitWithVanishedSlot(t *testing.T) {
	provider := &fakeProvider{windows: map[int64][]clinic.Availability{1: janReferenceWindows(t)}}
	api := &fakeAPI{}
	wf, _, notifier := newTestWorkflow(provider, api)

	ctx := context.Background()
	require.NoError(t, wf.ChoosePractitioner(ctx, 1))
	require.NoError(t, wf.ChooseDay("2024-01-10"))
	require.NoError(t, wf.ChooseSlot(11))
	wf.ChoosePatient(42)

	// The cache refreshes to an empty set before submission
	wf.ApplyAvailabilities(1, nil)

	_, err := wf.Submit(ctx)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Zero(t, api.createCalls)
	assert.Equal(t, []string{MsgFailed}, notifier.messages)
}
