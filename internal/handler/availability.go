package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/guard"
	"github.com/medconnect/portal-gateway/internal/service"
)

// AvailabilityHandler implements the doctor's slot editor endpoints.
type AvailabilityHandler struct {
	service *service.AvailabilityService
	logger  *zap.Logger
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(service *service.AvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		logger:  logger,
	}
}

// GetAvailability handles GET /portal/v1/availability.
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	availability, err := h.service.Load(c.Request.Context(), guard.TokenFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"availability": availability})
}

// AddSlotsRequest is the slot template form. Weekdays uses time.Weekday
// numbering, Sunday = 0.
type AddSlotsRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Duration  int    `json:"duration" binding:"required"`
	Recurring bool   `json:"recurring"`
	Weekdays  []int  `json:"weekdays"`
}

// PostSlots handles POST /portal/v1/availability/slots.
func (h *AvailabilityHandler) PostSlots(c *gin.Context) {
	var req AddSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		respondBadRequest(c, err)
		return
	}

	weekdays := make([]time.Weekday, 0, len(req.Weekdays))
	for _, wd := range req.Weekdays {
		if wd < 0 || wd > 6 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Weekdays must be between 0 (Sunday) and 6 (Saturday)",
			})
			return
		}
		weekdays = append(weekdays, time.Weekday(wd))
	}

	availability, err := h.service.AddSlots(c.Request.Context(), guard.TokenFrom(c), service.SlotTemplate{
		Date:      req.Date,
		Start:     req.StartTime,
		End:       req.EndTime,
		Duration:  req.Duration,
		Recurring: req.Recurring,
		Weekdays:  weekdays,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"availability": availability})
}

// DeleteSlot handles DELETE /portal/v1/availability/:date/slots/:slotId.
func (h *AvailabilityHandler) DeleteSlot(c *gin.Context) {
	availability, err := h.service.DeleteSlot(c.Request.Context(), guard.TokenFrom(c), c.Param("date"), c.Param("slotId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"availability": availability})
}
