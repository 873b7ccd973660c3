package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/medconnect/portal-gateway/pkg/model"
)

// AnalyzeSymptoms asks the backend to classify free-text symptoms.
func (c *Client) AnalyzeSymptoms(ctx context.Context, token, symptoms string) (*model.AnalysisResult, error) {
	req := struct {
		Symptoms string `json:"symptoms"`
	}{Symptoms: symptoms}

	var result model.AnalysisResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/appointments/analyze-symptoms", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AvailableDoctors lists doctors for a specialty, optionally on a date.
func (c *Client) AvailableDoctors(ctx context.Context, token, specialty, date string) ([]model.DoctorSummary, error) {
	q := url.Values{}
	if specialty != "" {
		q.Set("specialty", specialty)
	}
	if date != "" {
		q.Set("date", date)
	}

	path := "/api/v1/appointments/available-doctors"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var doctors []model.DoctorSummary
	if err := c.do(ctx, http.MethodGet, path, token, nil, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// BookingRequest is the payload for POST /api/v1/appointments/book-appointment.
type BookingRequest struct {
	PatientID       string        `json:"patient_id"`
	DoctorID        string        `json:"doctor_id"`
	AppointmentDate string        `json:"appointment_date"`
	AppointmentTime string        `json:"appointment_time"`
	Duration        int           `json:"duration"`
	Symptoms        string        `json:"symptoms"`
	Urgency         model.Urgency `json:"urgency"`
}

// BookingConfirmation is the backend's acknowledgement of a booking.
type BookingConfirmation struct {
	Message          string `json:"message"`
	AppointmentID    string `json:"appointment_id"`
	DoctorName       string `json:"doctor_name"`
	ConfirmationCode string `json:"confirmation_code"`
}

// BookAppointment creates the appointment.
func (c *Client) BookAppointment(ctx context.Context, token string, req BookingRequest) (*BookingConfirmation, error) {
	var confirmation BookingConfirmation
	if err := c.do(ctx, http.MethodPost, "/api/v1/appointments/book-appointment", token, req, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

// MyAppointments lists the authenticated user's appointments.
func (c *Client) MyAppointments(ctx context.Context, token string) ([]model.Appointment, error) {
	var resp struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/appointments/my-appointments", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Appointments, nil
}

// CancelAppointment cancels one appointment by ID.
func (c *Client) CancelAppointment(ctx context.Context, token, appointmentID string) error {
	path := fmt.Sprintf("/api/v1/appointments/%s/cancel", url.PathEscape(appointmentID))
	return c.do(ctx, http.MethodPut, path, token, nil, nil)
}
