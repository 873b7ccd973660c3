package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medconnect/portal-gateway/internal/backend"
	"github.com/medconnect/portal-gateway/internal/service"
)

// ErrorResponse is the error envelope returned by every portal endpoint.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details *string           `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// respondServiceError translates service-layer errors into the shared error
// envelope. Unknown errors become a generic internal error with the cause in
// the details field.
func respondServiceError(c *gin.Context, err error) {
	var fieldErrs *service.FieldErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Please correct the highlighted fields",
			Fields:  fieldErrs.Fields,
		})
		return
	}

	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "INVALID_CREDENTIALS",
			Message: service.ErrInvalidCredentials.Error(),
		})
		return
	}

	var mismatch *service.RoleMismatchError
	if errors.As(err, &mismatch) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Code:    "ROLE_MISMATCH",
			Message: mismatch.Error(),
		})
		return
	}

	var transition *service.InvalidTransitionError
	if errors.As(err, &transition) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    "INVALID_STATE",
			Message: "That action is not available right now",
			Details: stringPtr(transition.Error()),
		})
		return
	}

	if errors.Is(err, service.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Conversation not found or expired",
		})
		return
	}

	if errors.Is(err, service.ErrSlotBooked) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    "SLOT_BOOKED",
			Message: "This slot has been booked by a patient and cannot be deleted",
		})
		return
	}

	if errors.Is(err, service.ErrSlotNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Slot not found",
		})
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Code:    "BACKEND_ERROR",
			Message: "The service is temporarily unavailable. Please try again.",
			Details: stringPtr(apiErr.Error()),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "Something went wrong. Please try again.",
		Details: stringPtr(err.Error()),
	})
}

// respondBadRequest reports a malformed request body.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid request body",
		Details: stringPtr(err.Error()),
	})
}
