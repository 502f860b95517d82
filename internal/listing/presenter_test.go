package listing

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

type fakeAPI struct {
	appointments  []clinic.Appointment
	patients      []clinic.Patient
	practitioners []clinic.Practitioner

	appointmentsErr error
	deleteErr       error
	deleteCalls     int
}

func (f *fakeAPI) Appointments(ctx context.Context) ([]clinic.Appointment, error) {
	if f.appointmentsErr != nil {
		return nil, f.appointmentsErr
	}
	return f.appointments, nil
}

func (f *fakeAPI) Patients(ctx context.Context) ([]clinic.Patient, error) {
	return f.patients, nil
}

func (f *fakeAPI) Practitioners(ctx context.Context) ([]clinic.Practitioner, error) {
	return f.practitioners, nil
}

func (f *fakeAPI) DeleteAppointment(ctx context.Context, appointmentID int64) (*clinic.Appointment, error) {
	f.deleteCalls++
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	for _, a := range f.appointments {
		if a.ID == appointmentID {
			return &a, nil
		}
	}
	return nil, errors.New("not found")
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func appt(id, patientID, practitionerID int64) clinic.Appointment {
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	return clinic.Appointment{
		ID:             id,
		PatientID:      patientID,
		PractitionerID: practitionerID,
		Start:          start,
		End:            start.Add(30 * time.Minute),
	}
}

func directoryAPI() *fakeAPI {
	return &fakeAPI{
		appointments: []clinic.Appointment{
			appt(7, 1, 100),
			appt(8, 2, 101),
		},
		patients: []clinic.Patient{
			{ID: 1, FirstName: "Jane", LastName: "Moore"},
			{ID: 2, FirstName: "Omar", LastName: "Reyes"},
		},
		practitioners: []clinic.Practitioner{
			{ID: 100, FirstName: "Sofia", LastName: "Janssen"},
			{ID: 101, FirstName: "Liam", LastName: "Walsh"},
		},
	}
}

func newTestPresenter(api *fakeAPI) (*Presenter, *store.Store, *recordingNotifier) {
	st := store.New()
	notifier := &recordingNotifier{}
	return NewPresenter(api, st, notifier, zap.NewNop()), st, notifier
}

func TestRefreshLoadsStoreAndDirectories(t *testing.T) {
	p, st, _ := newTestPresenter(directoryAPI())

	require.NoError(t, p.Refresh(context.Background()))

	assert.Equal(t, 2, st.Len())
	assert.False(t, st.Loading())
	assert.NoError(t, st.Err())

	entries := p.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Jane", entries[0].Patient.FirstName)
	assert.Equal(t, "Sofia", entries[0].Practitioner.FirstName)
}

func TestRefreshFailureRecordsError(t *testing.T) {
	api := directoryAPI()
	api.appointmentsErr = errors.New("server unavailable")
	p, st, _ := newTestPresenter(api)

	require.Error(t, p.Refresh(context.Background()))
	assert.Error(t, st.Err())
	assert.False(t, st.Loading())
}

func TestEntriesExcludeDanglingReferences(t *testing.T) {
	api := directoryAPI()
	// 9 references a patient that no longer exists, 10 an unknown practitioner.
	api.appointments = append(api.appointments, appt(9, 999, 100), appt(10, 1, 999))
	p, _, _ := newTestPresenter(api)

	require.NoError(t, p.Refresh(context.Background()))

	entries := p.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(7), entries[0].Appointment.ID)
	assert.Equal(t, int64(8), entries[1].Appointment.ID)
}

func TestFilter(t *testing.T) {
	p, _, _ := newTestPresenter(directoryAPI())
	require.NoError(t, p.Refresh(context.Background()))

	t.Run("empty query returns all", func(t *testing.T) {
		assert.Len(t, p.Filter(""), 2)
	})

	t.Run("patient name is case-insensitive", func(t *testing.T) {
		entries := p.Filter("jane")
		require.Len(t, entries, 1)
		assert.Equal(t, int64(7), entries[0].Appointment.ID)
	})

	t.Run("practitioner name matches", func(t *testing.T) {
		entries := p.Filter("Walsh")
		require.Len(t, entries, 1)
		assert.Equal(t, int64(8), entries[0].Appointment.ID)
	})

	t.Run("id substring matches", func(t *testing.T) {
		entries := p.Filter("8")
		require.Len(t, entries, 1)
		assert.Equal(t, int64(8), entries[0].Appointment.ID)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, p.Filter("zzz"))
	})
}

func TestDeleteRemovesRecordAndNotifies(t *testing.T) {
	p, st, notifier := newTestPresenter(directoryAPI())
	require.NoError(t, p.Refresh(context.Background()))

	require.NoError(t, p.Delete(context.Background(), 7))

	_, ok := st.Get(7)
	assert.False(t, ok)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, []string{"Appointment #7 deleted successfully"}, notifier.messages)
}

func TestDeleteFailureLeavesStoreUnchanged(t *testing.T) {
	api := directoryAPI()
	api.deleteErr = errors.New("server unavailable")
	p, st, notifier := newTestPresenter(api)
	require.NoError(t, p.Refresh(context.Background()))

	require.Error(t, p.Delete(context.Background(), 7))

	_, ok := st.Get(7)
	assert.True(t, ok)
	assert.Equal(t, 2, st.Len())
	assert.Error(t, st.Err())
	assert.Equal(t, []string{msgFailed}, notifier.messages)
}
