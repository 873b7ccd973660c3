package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/guard"
	"github.com/medconnect/portal-gateway/internal/service"
)

// ChatHandler implements the booking conversation endpoints. Every response
// carries the full conversation snapshot so the client can rerender the
// transcript and the current step.
type ChatHandler struct {
	service *service.ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// PostStart handles POST /portal/v1/chat/start. The snapshot already contains
// the assistant greeting.
func (h *ChatHandler) PostStart(c *gin.Context) {
	identity, _ := guard.IdentityFrom(c)

	conv := h.service.Start(identity, guard.TokenFrom(c))

	c.JSON(http.StatusCreated, conv.Snapshot())
}

// GetConversation handles GET /portal/v1/chat/:id.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conv, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv.Snapshot())
}

// SymptomsRequest carries the patient's free-text description.
type SymptomsRequest struct {
	Symptoms string `json:"symptoms" binding:"required"`
}

// PostSymptoms handles POST /portal/v1/chat/:id/symptoms.
func (h *ChatHandler) PostSymptoms(c *gin.Context) {
	var req SymptomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		respondBadRequest(c, err)
		return
	}

	conv, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := conv.SubmitSymptoms(c.Request.Context(), req.Symptoms); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv.Snapshot())
}

// DoctorRequest carries the selected doctor's ID.
type DoctorRequest struct {
	DoctorID string `json:"doctor_id" binding:"required"`
}

// PostDoctor handles POST /portal/v1/chat/:id/doctor.
func (h *ChatHandler) PostDoctor(c *gin.Context) {
	var req DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		respondBadRequest(c, err)
		return
	}

	conv, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := conv.SelectDoctor(req.DoctorID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv.Snapshot())
}

// SlotRequest carries the selected slot's date and time.
type SlotRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// PostSlot handles POST /portal/v1/chat/:id/slot.
func (h *ChatHandler) PostSlot(c *gin.Context) {
	var req SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		respondBadRequest(c, err)
		return
	}

	conv, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := conv.SelectSlot(req.Date, req.Time); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv.Snapshot())
}

// GetStatus handles GET /portal/v1/chat/:id/status, a lightweight poll for
// the conversation's progress.
func (h *ChatHandler) GetStatus(c *gin.Context) {
	conv, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	snapshot := conv.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"id":      snapshot.ID,
		"state":   snapshot.State,
		"pending": snapshot.Pending,
		"turns":   len(snapshot.Turns),
	})
}

// PostConfirm handles POST /portal/v1/chat/:id/confirm.
func (h *ChatHandler) PostConfirm(c *gin.Context) {
	conv, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if _, err := conv.Confirm(c.Request.Context()); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv.Snapshot())
}

// DeleteConversation handles DELETE /portal/v1/chat/:id, used when the patient
// navigates away from the booking flow.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	h.service.End(c.Param("id"))

	c.JSON(http.StatusOK, gin.H{"message": "Conversation ended"})
}
