package clinic

import (
	"time"
)

type Patient struct {
	ID        int64
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Practitioner struct {
	ID        int64
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Availability is one bookable window offered by a practitioner.
// Start < End always holds; windows for the same practitioner may overlap.
type Availability struct {
	ID             int64
	PractitionerID int64
	Start          time.Time
	End            time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Appointment struct {
	ID             int64
	PatientID      int64
	PractitionerID int64
	Start          time.Time
	End            time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
