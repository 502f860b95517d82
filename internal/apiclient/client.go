// Package apiclient is the REST client for the clinic booking API. It is the
// availability provider for the booking workflow and performs all appointment
// mutations. Identifiers arriving as JSON strings are normalized to their
// numeric form before they reach callers.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/clinicware/clinic-booking/internal/clinic"
	"github.com/clinicware/clinic-booking/internal/wire"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is a non-success response from the server.
type APIError struct {
	Status  int
	Code    string
	Details string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Code, e.Status)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// Wire documents

type appointmentDoc struct {
	ID             wire.ID   `json:"id"`
	PatientID      wire.ID   `json:"patientId"`
	PractitionerID wire.ID   `json:"practitionerId"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

type personDoc struct {
	ID        wire.ID `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
}

type availabilityDoc struct {
	ID             wire.ID   `json:"id"`
	PractitionerID wire.ID   `json:"practitionerId"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

// appointmentPayload sends ids as strings, the way form-driven clients do;
// the server normalizes them.
type appointmentPayload struct {
	PatientID      string    `json:"patientId"`
	PractitionerID string    `json:"practitionerId"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	AppointmentID  string    `json:"appointmentId,omitempty"`
}

func (d appointmentDoc) toDomain() clinic.Appointment {
	return clinic.Appointment{
		ID:             d.ID.Int64(),
		PatientID:      d.PatientID.Int64(),
		PractitionerID: d.PractitionerID.Int64(),
		Start:          d.StartDate,
		End:            d.EndDate,
	}
}

// Operations

func (c *Client) Appointments(ctx context.Context) ([]clinic.Appointment, error) {
	var docs []appointmentDoc
	if err := c.get(ctx, "/appointments", nil, &docs); err != nil {
		return nil, err
	}

	appts := make([]clinic.Appointment, 0, len(docs))
	for _, d := range docs {
		appts = append(appts, d.toDomain())
	}
	return appts, nil
}

func (c *Client) CreateAppointment(ctx context.Context, patientID, practitionerID int64, start, end time.Time) (*clinic.Appointment, error) {
	payload := appointmentPayload{
		PatientID:      strconv.FormatInt(patientID, 10),
		PractitionerID: strconv.FormatInt(practitionerID, 10),
		StartDate:      start,
		EndDate:        end,
	}

	var doc appointmentDoc
	if err := c.send(ctx, http.MethodPost, "/appointments", nil, payload, &doc); err != nil {
		return nil, err
	}

	appt := doc.toDomain()
	return &appt, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, appointmentID, patientID, practitionerID int64, start, end time.Time) (*clinic.Appointment, error) {
	payload := appointmentPayload{
		PatientID:      strconv.FormatInt(patientID, 10),
		PractitionerID: strconv.FormatInt(practitionerID, 10),
		StartDate:      start,
		EndDate:        end,
		AppointmentID:  strconv.FormatInt(appointmentID, 10),
	}

	query := url.Values{"appointmentId": {strconv.FormatInt(appointmentID, 10)}}

	var doc appointmentDoc
	if err := c.send(ctx, http.MethodPut, "/appointments", query, payload, &doc); err != nil {
		return nil, err
	}

	appt := doc.toDomain()
	return &appt, nil
}

func (c *Client) DeleteAppointment(ctx context.Context, appointmentID int64) (*clinic.Appointment, error) {
	query := url.Values{"appointmentId": {strconv.FormatInt(appointmentID, 10)}}

	var doc appointmentDoc
	if err := c.send(ctx, http.MethodDelete, "/appointments", query, nil, &doc); err != nil {
		return nil, err
	}

	appt := doc.toDomain()
	return &appt, nil
}

func (c *Client) Patients(ctx context.Context) ([]clinic.Patient, error) {
	var docs []personDoc
	if err := c.get(ctx, "/patients", nil, &docs); err != nil {
		return nil, err
	}

	patients := make([]clinic.Patient, 0, len(docs))
	for _, d := range docs {
		patients = append(patients, clinic.Patient{
			ID:        d.ID.Int64(),
			FirstName: d.FirstName,
			LastName:  d.LastName,
		})
	}
	return patients, nil
}

func (c *Client) Practitioners(ctx context.Context) ([]clinic.Practitioner, error) {
	var docs []personDoc
	if err := c.get(ctx, "/practitioners", nil, &docs); err != nil {
		return nil, err
	}

	practitioners := make([]clinic.Practitioner, 0, len(docs))
	for _, d := range docs {
		practitioners = append(practitioners, clinic.Practitioner{
			ID:        d.ID.Int64(),
			FirstName: d.FirstName,
			LastName:  d.LastName,
		})
	}
	return practitioners, nil
}

// Availabilities returns the windows currently offered by one practitioner.
// A zero practitioner id short-circuits to an empty result without issuing a
// request.
func (c *Client) Availabilities(ctx context.Context, practitionerID int64) ([]clinic.Availability, error) {
	if practitionerID == 0 {
		return nil, nil
	}

	query := url.Values{"practitionerId": {strconv.FormatInt(practitionerID, 10)}}

	var docs []availabilityDoc
	if err := c.get(ctx, "/availabilities", query, &docs); err != nil {
		return nil, err
	}

	windows := make([]clinic.Availability, 0, len(docs))
	for _, d := range docs {
		windows = append(windows, clinic.Availability{
			ID:             d.ID.Int64(),
			PractitionerID: d.PractitionerID.Int64(),
			Start:          d.StartDate,
			End:            d.EndDate,
		})
	}
	return windows, nil
}

// Transport plumbing

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Code = body.Error
			apiErr.Details = body.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
