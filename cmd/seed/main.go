package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicware/clinic-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := ensureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	practitionerIDs, err := seedPractitioners(context.Background(), pool, 40)
	if err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAvailabilities(context.Background(), pool, practitionerIDs); err != nil {
		log.Fatalf("seed availabilities: %v", err)
	}

	log.Println("seed complete")
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS practitioners (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS availabilities (
			id BIGSERIAL PRIMARY KEY,
			practitioner_id BIGINT NOT NULL REFERENCES practitioners(id),
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CHECK (start_date < end_date)
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id BIGSERIAL PRIMARY KEY,
			patient_id BIGINT NOT NULL REFERENCES patients(id),
			practitioner_id BIGINT NOT NULL REFERENCES practitioners(id),
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_availabilities_practitioner
			ON availabilities (practitioner_id, start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_window
			ON appointments (practitioner_id, start_date, end_date)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) ([]int64, error) {
	log.Printf("seeding %d practitioners", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO practitioners (first_name, last_name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
			RETURNING id
		`, gofakeit.FirstName(), gofakeit.LastName()).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("practitioners seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (first_name, last_name, created_at, updated_at)
				VALUES ($1, $2, now(), now())
			`, gofakeit.FirstName(), gofakeit.LastName())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

// seedAvailabilities gives each practitioner a run of 30 minute windows on
// weekday mornings and afternoons over the next two weeks.
func seedAvailabilities(ctx context.Context, pool *pgxpool.Pool, practitionerIDs []int64) error {
	log.Printf("seeding availabilities for %d practitioners", len(practitionerIDs))

	const slotMinutes = 30

	day := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	for _, practitionerID := range practitionerIDs {
		for d := 0; d < 14; d++ {
			date := day.Add(time.Duration(d) * 24 * time.Hour)
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}

			for _, startHour := range []int{9, 14} {
				// Skip some blocks so calendars look uneven
				if gofakeit.Number(0, 3) == 0 {
					continue
				}

				blockStart := date.Add(time.Duration(startHour) * time.Hour)
				for s := 0; s < 4; s++ {
					start := blockStart.Add(time.Duration(s*slotMinutes) * time.Minute)
					end := start.Add(slotMinutes * time.Minute)

					_, err := tx.Exec(ctx, `
						INSERT INTO availabilities (practitioner_id, start_date, end_date, created_at, updated_at)
						VALUES ($1, $2, $3, now(), now())
					`, practitionerID, start, end)
					if err != nil {
						return err
					}
					total++
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("availabilities seeded: %d", total)
	return nil
}
