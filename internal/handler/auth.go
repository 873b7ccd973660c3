package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/guard"
	"github.com/medconnect/portal-gateway/internal/service"
	"github.com/medconnect/portal-gateway/internal/validation"
	"github.com/medconnect/portal-gateway/pkg/model"
)

// AuthHandler implements the login, registration and session endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// LoginRequest is the login form payload. Role is the role tab selected on
// the form, not necessarily the account's actual role.
type LoginRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Phone    string     `json:"phone"`
	Role     model.Role `json:"role"`
}

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	FullName        string     `json:"fullName"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirmPassword"`
	Role            model.Role `json:"role"`
	Specialization  string     `json:"specialization"`
	LicenseNumber   string     `json:"licenseNumber"`
}

// SessionResponse is returned by login, register and refresh. Redirect is the
// dashboard destination for the authenticated role.
type SessionResponse struct {
	User        model.Identity `json:"user"`
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	Redirect    string         `json:"redirect"`
}

// PostLogin handles POST /portal/v1/auth/login.
func (h *AuthHandler) PostLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		respondBadRequest(c, err)
		return
	}

	sess, err := h.service.Login(c.Request.Context(), validation.Fields{
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	}, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		User:        sess.Identity,
		AccessToken: sess.Token,
		TokenType:   "bearer",
		Redirect:    guard.DashboardRoute(sess.Identity.Role),
	})
}

// PostRegister handles POST /portal/v1/auth/register.
func (h *AuthHandler) PostRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		respondBadRequest(c, err)
		return
	}

	sess, err := h.service.Register(c.Request.Context(), validation.Fields{
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Specialization:  req.Specialization,
		LicenseNumber:   req.LicenseNumber,
	}, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		User:        sess.Identity,
		AccessToken: sess.Token,
		TokenType:   "bearer",
		Redirect:    guard.DashboardRoute(sess.Identity.Role),
	})
}

// GetMe handles GET /portal/v1/auth/me.
func (h *AuthHandler) GetMe(c *gin.Context) {
	identity, ok := guard.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHENTICATED",
			Message: "Authentication required",
		})
		return
	}

	c.JSON(http.StatusOK, identity)
}

// PostLogout handles POST /portal/v1/auth/logout. The local session is always
// cleared, even when the backend call fails.
func (h *AuthHandler) PostLogout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), guard.TokenFrom(c))

	c.JSON(http.StatusOK, gin.H{
		"message":  "Logged out",
		"redirect": guard.LoginRoute,
	})
}

// PostRefresh handles POST /portal/v1/auth/refresh.
func (h *AuthHandler) PostRefresh(c *gin.Context) {
	sess, err := h.service.Refresh(c.Request.Context(), guard.TokenFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		User:        sess.Identity,
		AccessToken: sess.Token,
		TokenType:   "bearer",
		Redirect:    guard.DashboardRoute(sess.Identity.Role),
	})
}
