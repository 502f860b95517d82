package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	redisclient "github.com/clinicware/clinic-booking/internal/redis"
)

var (
	ErrWindowNotOffered    = errors.New("no availability window offered for the requested times")
	ErrWindowAlreadyBooked = errors.New("availability window already has an appointment")
	ErrWindowBeingBooked   = errors.New("availability window is currently being booked, please retry")
	ErrInvalidWindow       = errors.New("window start must be before end")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	logger *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		logger: logger,
	}
}

// BookAppointment creates an appointment for the given patient and
// practitioner. The requested start/end pair must match a window the
// practitioner currently offers, and a per window lock ensures two concurrent
// requests cannot both claim it.
func (s *Service) BookAppointment(ctx context.Context, patientID, practitionerID int64, start, end time.Time) (*Appointment, error) {
	window, err := s.resolveWindow(ctx, patientID, practitionerID, start, end)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithWindowLock(ctx, window.ID, func(lockCtx context.Context) error {
		// Inside the critical section re-check for an appointment already
		// occupying this window.
		existing, err := s.repo.GetAppointmentForWindow(lockCtx, practitionerID, start, end)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check window occupancy: %w", err)
		}
		if existing != nil {
			return ErrWindowAlreadyBooked
		}

		appt, err := s.repo.CreateAppointment(lockCtx, patientID, practitionerID, start, end)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrWindowBeingBooked
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.Int64("appointment_id", created.ID),
		zap.Int64("practitioner_id", practitionerID),
		zap.Time("start", start),
	)

	return created, nil
}

// RescheduleAppointment replaces an appointment's patient, practitioner and
// times with a newly chosen window, preserving the appointment id. The
// appointment may keep the window it already occupies.
func (s *Service) RescheduleAppointment(ctx context.Context, id, patientID, practitionerID int64, start, end time.Time) (*Appointment, error) {
	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	window, err := s.resolveWindow(ctx, patientID, practitionerID, start, end)
	if err != nil {
		return nil, err
	}

	var updated *Appointment

	err = s.locker.WithWindowLock(ctx, window.ID, func(lockCtx context.Context) error {
		existing, err := s.repo.GetAppointmentForWindow(lockCtx, practitionerID, start, end)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check window occupancy: %w", err)
		}
		if existing != nil && existing.ID != current.ID {
			return ErrWindowAlreadyBooked
		}

		appt, err := s.repo.UpdateAppointment(lockCtx, id, patientID, practitionerID, start, end)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		updated = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrWindowBeingBooked
		}
		return nil, err
	}

	s.logger.Info("appointment rescheduled",
		zap.Int64("appointment_id", updated.ID),
		zap.Int64("practitioner_id", practitionerID),
		zap.Time("start", start),
	)

	return updated, nil
}

// CancelAppointment deletes an appointment and echoes the deleted record.
func (s *Service) CancelAppointment(ctx context.Context, id int64) (*Appointment, error) {
	appt, err := s.repo.DeleteAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete appointment: %w", err)
	}

	s.logger.Info("appointment cancelled", zap.Int64("appointment_id", appt.ID))

	return appt, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]Appointment, error) {
	appts, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	patients, err := s.repo.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

func (s *Service) ListPractitioners(ctx context.Context) ([]Practitioner, error) {
	practitioners, err := s.repo.ListPractitioners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list practitioners: %w", err)
	}
	return practitioners, nil
}

// ListAvailabilities returns the windows a practitioner currently offers,
// ordered by start instant.
func (s *Service) ListAvailabilities(ctx context.Context, practitionerID int64) ([]Availability, error) {
	if _, err := s.repo.GetPractitionerByID(ctx, practitionerID); err != nil {
		if errors.Is(err, ErrPractitionerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load practitioner: %w", err)
	}

	windows, err := s.repo.ListAvailabilities(ctx, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("list availabilities: %w", err)
	}
	return windows, nil
}

// SweepEndedWindows removes availability windows whose end instant has
// passed. Intended to be called periodically by the sweeper worker.
func (s *Service) SweepEndedWindows(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteEndedAvailabilities(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("delete ended availabilities: %w", err)
	}

	if removed > 0 {
		s.logger.Info("swept ended availability windows", zap.Int64("removed", removed))
	}

	return removed, nil
}

// resolveWindow validates the participants and maps the requested times back
// to an offered availability window.
func (s *Service) resolveWindow(ctx context.Context, patientID, practitionerID int64, start, end time.Time) (*Availability, error) {
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}

	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if _, err := s.repo.GetPractitionerByID(ctx, practitionerID); err != nil {
		if errors.Is(err, ErrPractitionerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load practitioner: %w", err)
	}

	window, err := s.repo.GetAvailabilityByTimes(ctx, practitionerID, start, end)
	if err != nil {
		if errors.Is(err, ErrWindowNotFound) {
			return nil, ErrWindowNotOffered
		}
		return nil, fmt.Errorf("load availability window: %w", err)
	}

	return window, nil
}
