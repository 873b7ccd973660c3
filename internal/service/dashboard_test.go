package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/backend"
	"github.com/medconnect/portal-gateway/pkg/model"
)

type MockAppointmentLister struct {
	mock.Mock
}

func (m *MockAppointmentLister) MyAppointments(ctx context.Context, token string) ([]model.Appointment, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func TestPatientDashboard(t *testing.T) {
	lister := &MockAppointmentLister{}
	lister.On("MyAppointments", mock.Anything, "token").Return([]model.Appointment{
		{ID: "apt-1", Status: "scheduled", Urgency: model.UrgencyUrgent},
		{ID: "apt-2", Status: "scheduled", Urgency: model.UrgencyRoutine},
		{ID: "apt-3", Status: "cancelled", Urgency: model.UrgencyUrgent},
	}, nil)

	svc := NewDashboardService(lister, &MockAvailabilityBackend{}, zap.NewNop())

	dashboard, err := svc.Patient(context.Background(), "token", model.Identity{FullName: "Jane Doe"})

	require.NoError(t, err)
	assert.Equal(t, "Welcome back, Jane Doe!", dashboard.Welcome)
	assert.Len(t, dashboard.Upcoming, 2)
	assert.Equal(t, 1, dashboard.UrgentCount)
	assert.Equal(t, 3, dashboard.TotalBookings)
}

func TestPatientDashboardBackendFailure(t *testing.T) {
	lister := &MockAppointmentLister{}
	lister.On("MyAppointments", mock.Anything, "token").Return(nil, errors.New("backend down"))

	svc := NewDashboardService(lister, &MockAvailabilityBackend{}, zap.NewNop())

	_, err := svc.Patient(context.Background(), "token", model.Identity{})

	assert.Error(t, err)
}

func TestDoctorDashboard(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	lister := &MockAppointmentLister{}
	lister.On("MyAppointments", mock.Anything, "token").Return([]model.Appointment{
		{ID: "apt-1", Date: today, Status: "scheduled"},
		{ID: "apt-2", Date: tomorrow, Status: "scheduled"},
		{ID: "apt-3", Date: yesterday, Status: "scheduled"},
		{ID: "apt-4", Date: today, Status: "cancelled"},
	}, nil)

	availabilityMock := &MockAvailabilityBackend{}
	availabilityMock.On("GetAvailability", mock.Anything, "token").Return(backend.Availability{
		today: {
			{ID: "slot-1", IsBooked: true},
			{ID: "slot-2"},
			{ID: "slot-3"},
		},
	}, nil)

	svc := NewDashboardService(lister, availabilityMock, zap.NewNop())

	dashboard, err := svc.Doctor(context.Background(), "token", model.Identity{
		FullName:       "Sarah Smith",
		Specialization: "Cardiology",
	})

	require.NoError(t, err)
	assert.Equal(t, "Welcome back, Dr. Sarah Smith!", dashboard.Welcome)
	assert.Equal(t, "Cardiology", dashboard.Specialization)
	require.Len(t, dashboard.Today, 1)
	assert.Equal(t, "apt-1", dashboard.Today[0].ID)
	require.Len(t, dashboard.Upcoming, 1)
	assert.Equal(t, "apt-2", dashboard.Upcoming[0].ID)
	assert.Equal(t, 2, dashboard.OpenSlots)
	assert.Equal(t, 1, dashboard.BookedSlots)
}

func TestDoctorDashboardWithoutAvailability(t *testing.T) {
	lister := &MockAppointmentLister{}
	lister.On("MyAppointments", mock.Anything, "token").Return([]model.Appointment{}, nil)

	availabilityMock := &MockAvailabilityBackend{}
	availabilityMock.On("GetAvailability", mock.Anything, "token").Return(nil, errors.New("backend down"))

	svc := NewDashboardService(lister, availabilityMock, zap.NewNop())

	// The slot counters are best effort; the schedule still renders.
	dashboard, err := svc.Doctor(context.Background(), "token", model.Identity{FullName: "Sarah Smith"})

	require.NoError(t, err)
	assert.Zero(t, dashboard.OpenSlots)
	assert.Zero(t, dashboard.BookedSlots)
}

func TestAdminDashboard(t *testing.T) {
	svc := NewDashboardService(&MockAppointmentLister{}, &MockAvailabilityBackend{}, zap.NewNop())

	dashboard := svc.Admin(model.Identity{FullName: "Ada Admin"})

	assert.Equal(t, "Welcome back, Ada Admin!", dashboard.Welcome)
	assert.NotEmpty(t, dashboard.Sections)
}
