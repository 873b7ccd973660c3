package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/guard"
	"github.com/medconnect/portal-gateway/internal/service"
)

// DashboardHandler implements the per-role dashboard endpoints. Role gating
// happens in the route guard; by the time a request lands here the role is
// already right.
type DashboardHandler struct {
	service *service.DashboardService
	logger  *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
	}
}

// GetPatientDashboard handles GET /portal/v1/dashboard/patient.
func (h *DashboardHandler) GetPatientDashboard(c *gin.Context) {
	identity, _ := guard.IdentityFrom(c)

	dashboard, err := h.service.Patient(c.Request.Context(), guard.TokenFrom(c), identity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetDoctorDashboard handles GET /portal/v1/dashboard/doctor.
func (h *DashboardHandler) GetDoctorDashboard(c *gin.Context) {
	identity, _ := guard.IdentityFrom(c)

	dashboard, err := h.service.Doctor(c.Request.Context(), guard.TokenFrom(c), identity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetAdminDashboard handles GET /portal/v1/dashboard/admin.
func (h *DashboardHandler) GetAdminDashboard(c *gin.Context) {
	identity, _ := guard.IdentityFrom(c)

	c.JSON(http.StatusOK, h.service.Admin(identity))
}
