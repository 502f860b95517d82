package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPractitionerNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability

	err := row.Scan(
		&a.ID,
		&a.PractitionerID,
		&a.Start,
		&a.End,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PractitionerID,
		&a.Start,
		&a.End,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetPractitionerByID(ctx context.Context, id int64) (*Practitioner, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`, id)
	return scanPractitioner(row)
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, created_at, updated_at
		FROM patients
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListPractitioners(ctx context.Context) ([]Practitioner, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, created_at, updated_at
		FROM practitioners
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListAvailabilities(ctx context.Context, practitionerID int64) ([]Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, practitioner_id, start_date, end_date, created_at, updated_at
		FROM availabilities
		WHERE practitioner_id = $1
		ORDER BY start_date
	`, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetAvailabilityByTimes(ctx context.Context, practitionerID int64, start, end time.Time) (*Availability, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, practitioner_id, start_date, end_date, created_at, updated_at
		FROM availabilities
		WHERE practitioner_id = $1
		  AND start_date = $2
		  AND end_date = $3
		ORDER BY id
		LIMIT 1
	`, practitionerID, start, end)
	return scanAvailability(row)
}

func (r *PgRepository) DeleteEndedAvailabilities(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availabilities
		WHERE end_date < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) GetAppointmentForWindow(ctx context.Context, practitionerID int64, start, end time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, practitioner_id, start_date, end_date, created_at, updated_at
		FROM appointments
		WHERE practitioner_id = $1
		  AND start_date = $2
		  AND end_date = $3
		LIMIT 1
	`, practitionerID, start, end)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, practitioner_id, start_date, end_date, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, practitioner_id, start_date, end_date, created_at, updated_at
		FROM appointments
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, patientID, practitionerID int64, start, end time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, practitioner_id, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, patient_id, practitioner_id, start_date, end_date, created_at, updated_at
	`, patientID, practitionerID, start, end)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id, patientID, practitionerID int64, start, end time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $2,
		    practitioner_id = $3,
		    start_date = $4,
		    end_date = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, practitioner_id, start_date, end_date, created_at, updated_at
	`, id, patientID, practitionerID, start, end)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		RETURNING id, patient_id, practitioner_id, start_date, end_date, created_at, updated_at
	`, id)

	return scanAppointment(row)
}
