package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/guard"
	"github.com/medconnect/portal-gateway/pkg/model"
)

// AppointmentBackend is the slice of the backend client the appointment list
// endpoints need.
type AppointmentBackend interface {
	MyAppointments(ctx context.Context, token string) ([]model.Appointment, error)
	CancelAppointment(ctx context.Context, token, appointmentID string) error
}

// AppointmentHandler implements the appointment list and cancellation
// endpoints, thin pass-throughs to the backend.
type AppointmentHandler struct {
	backend AppointmentBackend
	logger  *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(backend AppointmentBackend, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		backend: backend,
		logger:  logger,
	}
}

// GetMyAppointments handles GET /portal/v1/appointments.
func (h *AppointmentHandler) GetMyAppointments(c *gin.Context) {
	appointments, err := h.backend.MyAppointments(c.Request.Context(), guard.TokenFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

// PutCancelAppointment handles PUT /portal/v1/appointments/:id/cancel.
func (h *AppointmentHandler) PutCancelAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	if err := h.backend.CancelAppointment(c.Request.Context(), guard.TokenFrom(c), appointmentID); err != nil {
		respondServiceError(c, err)
		return
	}

	h.logger.Info("appointment cancelled", zap.String("appointment_id", appointmentID))

	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled successfully"})
}
