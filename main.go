package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/medconnect/portal-gateway/internal/backend"
	"github.com/medconnect/portal-gateway/internal/config"
	"github.com/medconnect/portal-gateway/internal/guard"
	"github.com/medconnect/portal-gateway/internal/handler"
	"github.com/medconnect/portal-gateway/internal/middleware"
	"github.com/medconnect/portal-gateway/internal/service"
	"github.com/medconnect/portal-gateway/internal/session"
	"github.com/medconnect/portal-gateway/pkg/model"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("backend_base_url", cfg.Backend.BaseURL),
	)

	// Initialize the MedConnect backend client
	backendClient, err := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize backend client", zap.Error(err))
	}

	// Initialize the session store
	store := session.NewStore(backendClient, logger)

	// Initialize services
	authService := service.NewAuthService(backendClient, store, logger)

	var analyzer *service.OfflineAnalyzer
	if cfg.Chat.AllowDegraded {
		analyzer = &service.OfflineAnalyzer{}
		logger.Info("Degraded-mode symptom analysis enabled")
	}
	chatService := service.NewChatService(backendClient, analyzer, cfg.Chat.ConversationTTL, logger)
	availabilityService := service.NewAvailabilityService(backendClient, logger)
	dashboardService := service.NewDashboardService(backendClient, backendClient, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService, logger)
	appointmentHandler := handler.NewAppointmentHandler(backendClient, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	r := gin.New()

	// Add recovery middleware (must be first)
	r.Use(middleware.RecoveryMiddleware(logger))

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Configure appropriately for production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add request ID middleware
	r.Use(middleware.RequestIDMiddleware())

	// Add request logging middleware
	r.Use(middleware.RequestLoggingMiddleware(logger))

	// Add error logging middleware
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	registerRoutes(r, store, logger, routeHandlers{
		auth:         authHandler,
		chat:         chatHandler,
		availability: availabilityHandler,
		appointments: appointmentHandler,
		dashboard:    dashboardHandler,
	})

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// routeHandlers bundles the portal handlers for route registration.
type routeHandlers struct {
	auth         *handler.AuthHandler
	chat         *handler.ChatHandler
	availability *handler.AvailabilityHandler
	appointments *handler.AppointmentHandler
	dashboard    *handler.DashboardHandler
}

// registerRoutes wires the portal routes. Role gating mirrors the dashboard
// split: patients book appointments, doctors edit availability, admins get
// the overview.
func registerRoutes(r *gin.Engine, store *session.Store, logger *zap.Logger, h routeHandlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	portal := r.Group("/portal/v1")

	auth := portal.Group("/auth")
	auth.POST("/login", h.auth.PostLogin)
	auth.POST("/register", h.auth.PostRegister)

	authed := portal.Group("")
	authed.Use(guard.RequireAuth(store, logger))

	authed.GET("/auth/me", h.auth.GetMe)
	authed.POST("/auth/logout", h.auth.PostLogout)
	authed.POST("/auth/refresh", h.auth.PostRefresh)

	patient := authed.Group("")
	patient.Use(guard.RequireRoles(model.RolePatient))

	patient.POST("/chat/start", h.chat.PostStart)
	patient.GET("/chat/:id", h.chat.GetConversation)
	patient.GET("/chat/:id/status", h.chat.GetStatus)
	patient.DELETE("/chat/:id", h.chat.DeleteConversation)
	patient.POST("/chat/:id/symptoms", h.chat.PostSymptoms)
	patient.POST("/chat/:id/doctor", h.chat.PostDoctor)
	patient.POST("/chat/:id/slot", h.chat.PostSlot)
	patient.POST("/chat/:id/confirm", h.chat.PostConfirm)
	patient.PUT("/appointments/:id/cancel", h.appointments.PutCancelAppointment)
	patient.GET("/dashboard/patient", h.dashboard.GetPatientDashboard)

	// Both patients and doctors see their own appointment list.
	appointments := authed.Group("")
	appointments.Use(guard.RequireRoles(model.RolePatient, model.RoleDoctor))
	appointments.GET("/appointments", h.appointments.GetMyAppointments)

	doctor := authed.Group("")
	doctor.Use(guard.RequireRoles(model.RoleDoctor))

	doctor.GET("/availability", h.availability.GetAvailability)
	doctor.POST("/availability/slots", h.availability.PostSlots)
	doctor.DELETE("/availability/:date/slots/:slotId", h.availability.DeleteSlot)
	doctor.GET("/dashboard/doctor", h.dashboard.GetDoctorDashboard)

	admin := authed.Group("")
	admin.Use(guard.RequireRoles(model.RoleAdmin))
	admin.GET("/dashboard/admin", h.dashboard.GetAdminDashboard)
}

// newLogger builds the zap logger from the logging configuration.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
