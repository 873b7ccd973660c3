package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/pkg/model"
)

// AppointmentLister is the slice of the backend client the dashboards need.
type AppointmentLister interface {
	MyAppointments(ctx context.Context, token string) ([]model.Appointment, error)
}

// PatientDashboard is the patient landing page data.
type PatientDashboard struct {
	Welcome       string              `json:"welcome"`
	Upcoming      []model.Appointment `json:"upcoming_appointments"`
	UrgentCount   int                 `json:"urgent_count"`
	TotalBookings int                 `json:"total_bookings"`
}

// DoctorDashboard is the doctor landing page data.
type DoctorDashboard struct {
	Welcome        string              `json:"welcome"`
	Specialization string              `json:"specialization,omitempty"`
	Today          []model.Appointment `json:"todays_appointments"`
	Upcoming       []model.Appointment `json:"upcoming_appointments"`
	OpenSlots      int                 `json:"open_slots"`
	BookedSlots    int                 `json:"booked_slots"`
}

// AdminDashboard is the admin landing page data. The portal has no admin
// management operations; this is an informational overview.
type AdminDashboard struct {
	Welcome  string   `json:"welcome"`
	Sections []string `json:"sections"`
}

// DashboardService assembles the per-role landing pages from backend data.
type DashboardService struct {
	appointments AppointmentLister
	availability AvailabilityBackend
	logger       *zap.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(appointments AppointmentLister, availability AvailabilityBackend, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		appointments: appointments,
		availability: availability,
		logger:       logger,
	}
}

// Patient builds the patient dashboard: a personal greeting and the patient's
// scheduled appointments.
func (s *DashboardService) Patient(ctx context.Context, token string, identity model.Identity) (*PatientDashboard, error) {
	appointments, err := s.appointments.MyAppointments(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	upcoming := make([]model.Appointment, 0, len(appointments))
	urgent := 0
	for _, a := range appointments {
		if a.Status == "cancelled" {
			continue
		}
		upcoming = append(upcoming, a)
		if a.Urgency == model.UrgencyUrgent {
			urgent++
		}
	}

	return &PatientDashboard{
		Welcome:       fmt.Sprintf("Welcome back, %s!", identity.FullName),
		Upcoming:      upcoming,
		UrgentCount:   urgent,
		TotalBookings: len(appointments),
	}, nil
}

// Doctor builds the doctor dashboard: today's schedule, upcoming appointments
// and the current slot counts from the availability editor.
func (s *DashboardService) Doctor(ctx context.Context, token string, identity model.Identity) (*DoctorDashboard, error) {
	appointments, err := s.appointments.MyAppointments(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	today := time.Now().Format(dateLayout)
	todays := make([]model.Appointment, 0)
	upcoming := make([]model.Appointment, 0)
	for _, a := range appointments {
		if a.Status == "cancelled" {
			continue
		}
		if a.Date == today {
			todays = append(todays, a)
		} else if a.Date > today {
			upcoming = append(upcoming, a)
		}
	}

	dashboard := &DoctorDashboard{
		Welcome:        fmt.Sprintf("Welcome back, Dr. %s!", identity.FullName),
		Specialization: identity.Specialization,
		Today:          todays,
		Upcoming:       upcoming,
	}

	availability, err := s.availability.GetAvailability(ctx, token)
	if err != nil {
		// The schedule is still useful without slot counters.
		s.logger.Warn("failed to load availability for dashboard", zap.Error(err))
		return dashboard, nil
	}

	for _, slots := range availability {
		for _, slot := range slots {
			if slot.IsBooked {
				dashboard.BookedSlots++
			} else {
				dashboard.OpenSlots++
			}
		}
	}

	return dashboard, nil
}

// Admin builds the admin dashboard overview.
func (s *DashboardService) Admin(identity model.Identity) *AdminDashboard {
	return &AdminDashboard{
		Welcome: fmt.Sprintf("Welcome back, %s!", identity.FullName),
		Sections: []string{
			"User Management",
			"Doctor Verification",
			"Appointment Overview",
			"System Reports",
		},
	}
}
