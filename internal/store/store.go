// Package store holds the client-side cache of appointment records. It
// mirrors the server's collection after each successful mutation and tracks
// in-flight and error state for the operation that last touched it.
package store

import (
	"sync"

	"github.com/clinicware/clinic-booking/internal/clinic"
)

// Store is a normalized appointment collection keyed by id. Insertion order
// is preserved for presentation.
type Store struct {
	mu      sync.Mutex
	byID    map[int64]clinic.Appointment
	order   []int64
	loading bool
	err     error
}

func New() *Store {
	return &Store{
		byID: make(map[int64]clinic.Appointment),
	}
}

// Begin marks an operation in flight.
func (s *Store) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
}

// Fail records a failed operation. The collection is left unchanged.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.loading = false
}

// SetAll replaces the collection with the given records, in the given order.
func (s *Store) SetAll(appts []clinic.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[int64]clinic.Appointment, len(appts))
	s.order = s.order[:0]
	for _, a := range appts {
		if _, ok := s.byID[a.ID]; !ok {
			s.order = append(s.order, a.ID)
		}
		s.byID[a.ID] = a
	}

	s.settle()
}

// AddOne appends a record. An id already present is left untouched.
func (s *Store) AddOne(a clinic.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[a.ID]; !ok {
		s.byID[a.ID] = a
		s.order = append(s.order, a.ID)
	}

	s.settle()
}

// UpsertOne replaces the record with the same id in place, or appends it.
func (s *Store) UpsertOne(a clinic.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.byID[a.ID] = a

	s.settle()
}

// RemoveOne drops the record with the given id, if present.
func (s *Store) RemoveOne(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; ok {
		delete(s.byID, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}

	s.settle()
}

// All returns the records in insertion order.
func (s *Store) All() []clinic.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]clinic.Appointment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *Store) Get(id int64) (clinic.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	return a, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// settle marks the last operation applied: error cleared, nothing in flight.
// Callers hold s.mu.
func (s *Store) settle() {
	s.err = nil
	s.loading = false
}
