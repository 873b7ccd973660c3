package integration_tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/backend"
	"github.com/medconnect/portal-gateway/internal/guard"
	"github.com/medconnect/portal-gateway/internal/handler"
	"github.com/medconnect/portal-gateway/internal/service"
	"github.com/medconnect/portal-gateway/internal/session"
	"github.com/medconnect/portal-gateway/pkg/model"
)

// fakeMedConnect is an in-memory stand-in for the MedConnect REST backend.
type fakeMedConnect struct {
	users        map[string]fakeUser // keyed by email
	tokens       map[string]string   // token -> email
	availability map[string][]model.Slot
	appointments []model.Appointment
	bookings     int
}

type fakeUser struct {
	identity model.Identity
	password string
}

func newFakeMedConnect() *fakeMedConnect {
	return &fakeMedConnect{
		users:        make(map[string]fakeUser),
		tokens:       make(map[string]string),
		availability: make(map[string][]model.Slot),
	}
}

func (f *fakeMedConnect) addUser(identity model.Identity, password string) string {
	f.users[identity.Email] = fakeUser{identity: identity, password: password}
	token := "token-" + identity.ID
	f.tokens[token] = identity.Email
	return token
}

func (f *fakeMedConnect) authenticate(r *http.Request) (model.Identity, bool) {
	auth := r.Header.Get("Authorization")
	if len(auth) < 8 {
		return model.Identity{}, false
	}
	email, ok := f.tokens[auth[7:]]
	if !ok {
		return model.Identity{}, false
	}
	return f.users[email].identity, true
}

func (f *fakeMedConnect) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		user, ok := f.users[req.Email]
		if !ok || user.password != req.Password {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"user":         user.identity,
			"access_token": "token-" + user.identity.ID,
			"token_type":   "bearer",
		})
	})

	mux.HandleFunc("POST /api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email          string     `json:"email"`
			Password       string     `json:"password"`
			FullName       string     `json:"full_name"`
			Phone          string     `json:"phone"`
			UserType       model.Role `json:"user_type"`
			Specialization string     `json:"specialization"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		identity := model.Identity{
			ID:             fmt.Sprintf("user-%d", len(f.users)+1),
			FullName:       req.FullName,
			Email:          req.Email,
			Role:           req.UserType,
			Phone:          req.Phone,
			Specialization: req.Specialization,
		}
		token := f.addUser(identity, req.Password)

		json.NewEncoder(w).Encode(map[string]any{
			"user":         identity,
			"access_token": token,
			"token_type":   "bearer",
		})
	})

	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		identity, ok := f.authenticate(r)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(identity)
	})

	mux.HandleFunc("POST /api/v1/appointments/analyze-symptoms", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.AnalysisResult{
			Urgency:         model.UrgencyUrgent,
			Specialty:       "Cardiology",
			Recommendations: []string{"See a Cardiology specialist as soon as possible"},
		})
	})

	mux.HandleFunc("GET /api/v1/appointments/available-doctors", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.DoctorSummary{
			{
				ID:        "doc-1",
				Name:      "Dr. Sarah Smith",
				Specialty: "Cardiology",
				Rating:    4.8,
				AvailableSlots: []model.Slot{
					{ID: "slot-1", Date: "2026-09-07", Time: "09:00", Duration: 30},
				},
			},
			{
				ID:        "doc-2",
				Name:      "Dr. John Brown",
				Specialty: "Dermatology",
				Rating:    4.5,
			},
		})
	})

	mux.HandleFunc("POST /api/v1/appointments/book-appointment", func(w http.ResponseWriter, r *http.Request) {
		var req backend.BookingRequest
		json.NewDecoder(r.Body).Decode(&req)

		f.bookings++
		appointment := model.Appointment{
			ID:        fmt.Sprintf("apt-%d", f.bookings),
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			Date:      req.AppointmentDate,
			Time:      req.AppointmentTime,
			Duration:  req.Duration,
			Symptoms:  req.Symptoms,
			Urgency:   req.Urgency,
			Status:    "scheduled",
		}
		f.appointments = append(f.appointments, appointment)

		json.NewEncoder(w).Encode(map[string]any{
			"message":           "Appointment booked successfully",
			"appointment_id":    appointment.ID,
			"doctor_name":       "Dr. Sarah Smith",
			"confirmation_code": fmt.Sprintf("APT%06d", f.bookings),
		})
	})

	mux.HandleFunc("GET /api/v1/appointments/my-appointments", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"appointments": f.appointments})
	})

	mux.HandleFunc("GET /api/doctor/availability", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"availability": f.availability})
	})

	mux.HandleFunc("POST /api/doctor/availability", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Date  string       `json:"date"`
			Slots []model.Slot `json:"slots"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.availability[req.Date] = req.Slots
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// setupPortal assembles the portal exactly as main does, pointed at the fake
// backend.
func setupPortal(t *testing.T, fake *fakeMedConnect) *gin.Engine {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	logger := zap.NewNop()

	client, err := backend.NewClient(srv.URL, 5*time.Second, logger)
	require.NoError(t, err)

	store := session.NewStore(client, logger)
	authService := service.NewAuthService(client, store, logger)
	chatService := service.NewChatService(client, nil, 30*time.Minute, logger)
	availabilityService := service.NewAvailabilityService(client, logger)
	dashboardService := service.NewDashboardService(client, client, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService, logger)
	appointmentHandler := handler.NewAppointmentHandler(client, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	portal := router.Group("/portal/v1")
	portal.POST("/auth/login", authHandler.PostLogin)
	portal.POST("/auth/register", authHandler.PostRegister)

	authed := portal.Group("")
	authed.Use(guard.RequireAuth(store, logger))
	authed.GET("/auth/me", authHandler.GetMe)
	authed.POST("/auth/logout", authHandler.PostLogout)

	patient := authed.Group("")
	patient.Use(guard.RequireRoles(model.RolePatient))
	patient.POST("/chat/start", chatHandler.PostStart)
	patient.GET("/chat/:id", chatHandler.GetConversation)
	patient.POST("/chat/:id/symptoms", chatHandler.PostSymptoms)
	patient.POST("/chat/:id/doctor", chatHandler.PostDoctor)
	patient.POST("/chat/:id/slot", chatHandler.PostSlot)
	patient.POST("/chat/:id/confirm", chatHandler.PostConfirm)
	patient.GET("/dashboard/patient", dashboardHandler.GetPatientDashboard)

	appointments := authed.Group("")
	appointments.Use(guard.RequireRoles(model.RolePatient, model.RoleDoctor))
	appointments.GET("/appointments", appointmentHandler.GetMyAppointments)

	doctor := authed.Group("")
	doctor.Use(guard.RequireRoles(model.RoleDoctor))
	doctor.GET("/availability", availabilityHandler.GetAvailability)
	doctor.POST("/availability/slots", availabilityHandler.PostSlots)
	doctor.DELETE("/availability/:date/slots/:slotId", availabilityHandler.DeleteSlot)
	doctor.GET("/dashboard/doctor", dashboardHandler.GetDoctorDashboard)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBookingFlowIntegration(t *testing.T) {
	fake := newFakeMedConnect()
	router := setupPortal(t, fake)

	// Register a patient through the portal.
	w := doJSON(t, router, http.MethodPost, "/portal/v1/auth/register", "", map[string]any{
		"fullName":        "Jane Doe",
		"email":           "jane@example.com",
		"phone":           "+36 30 123 4567",
		"password":        "secret123",
		"confirmPassword": "secret123",
		"role":            "patient",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered struct {
		AccessToken string `json:"access_token"`
		Redirect    string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	require.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "/portal/v1/dashboard/patient", registered.Redirect)
	token := registered.AccessToken

	// Start the booking conversation: it opens with a greeting.
	w = doJSON(t, router, http.MethodPost, "/portal/v1/chat/start", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var snapshot struct {
		ID    string `json:"id"`
		State string `json:"state"`
		Turns []struct {
			Speaker string `json:"speaker"`
			Text    string `json:"text"`
		} `json:"turns"`
		Doctors []model.DoctorSummary `json:"doctors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, "symptoms", snapshot.State)
	require.NotEmpty(t, snapshot.Turns)
	assert.Equal(t, "assistant", snapshot.Turns[0].Speaker)
	convID := snapshot.ID

	// Selecting a doctor before describing symptoms is rejected.
	w = doJSON(t, router, http.MethodPost, "/portal/v1/chat/"+convID+"/doctor", token, map[string]string{
		"doctor_id": "doc-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Describe symptoms; the analysis narrows the doctor list to Cardiology.
	w = doJSON(t, router, http.MethodPost, "/portal/v1/chat/"+convID+"/symptoms", token, map[string]string{
		"symptoms": "I have severe chest pain",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, "doctor_selection", snapshot.State)
	require.Len(t, snapshot.Doctors, 1)
	assert.Equal(t, "doc-1", snapshot.Doctors[0].ID)

	// Pick the doctor, then the slot.
	w = doJSON(t, router, http.MethodPost, "/portal/v1/chat/"+convID+"/doctor", token, map[string]string{
		"doctor_id": "doc-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, "slot_selection", snapshot.State)

	w = doJSON(t, router, http.MethodPost, "/portal/v1/chat/"+convID+"/slot", token, map[string]string{
		"date": "2026-09-07",
		"time": "09:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, "confirmation", snapshot.State)

	// Confirm the booking.
	w = doJSON(t, router, http.MethodPost, "/portal/v1/chat/"+convID+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, "completed", snapshot.State)

	lastTurn := snapshot.Turns[len(snapshot.Turns)-1]
	assert.Equal(t, "assistant", lastTurn.Speaker)
	assert.Contains(t, lastTurn.Text, "APT000001")

	// The appointment shows up in the patient's list and on the dashboard.
	w = doJSON(t, router, http.MethodGet, "/portal/v1/appointments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Appointments, 1)
	assert.Equal(t, model.UrgencyUrgent, list.Appointments[0].Urgency)

	w = doJSON(t, router, http.MethodGet, "/portal/v1/dashboard/patient", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome back, Jane Doe!")
}

func TestLoginRoleMismatchIntegration(t *testing.T) {
	fake := newFakeMedConnect()
	fake.addUser(model.Identity{
		ID:    "user-1",
		Email: "jane@example.com",
		Role:  model.RolePatient,
	}, "secret")

	router := setupPortal(t, fake)

	// Valid patient credentials through the doctor tab: rejected locally,
	// naming the account's actual role.
	w := doJSON(t, router, http.MethodPost, "/portal/v1/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"phone":    "+36 30 123 4567",
		"password": "secret",
		"role":     "doctor",
	})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "registered as a patient")

	// The rejected token must not have been admitted.
	w = doJSON(t, router, http.MethodGet, "/portal/v1/dashboard/patient", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The same credentials through the right tab work.
	w = doJSON(t, router, http.MethodPost, "/portal/v1/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"phone":    "+36 30 123 4567",
		"password": "secret",
		"role":     "patient",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRoleGatingIntegration(t *testing.T) {
	fake := newFakeMedConnect()
	patientToken := fake.addUser(model.Identity{
		ID:    "user-1",
		Email: "jane@example.com",
		Role:  model.RolePatient,
	}, "secret")
	doctorToken := fake.addUser(model.Identity{
		ID:    "user-2",
		Email: "doc@example.com",
		Role:  model.RoleDoctor,
	}, "secret")

	router := setupPortal(t, fake)

	// A patient cannot reach doctor routes; the response points at the
	// unauthorized page, not the login page.
	w := doJSON(t, router, http.MethodGet, "/portal/v1/availability", patientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "/portal/v1/unauthorized")

	// Anonymous callers are sent to login instead.
	w = doJSON(t, router, http.MethodGet, "/portal/v1/availability", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "/portal/v1/auth/login")

	// Unknown tokens are restored through the backend before giving up.
	w = doJSON(t, router, http.MethodGet, "/portal/v1/auth/me", doctorToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "doc@example.com")
}

func TestAvailabilityEditorIntegration(t *testing.T) {
	fake := newFakeMedConnect()
	doctorToken := fake.addUser(model.Identity{
		ID:    "user-2",
		Email: "doc@example.com",
		Role:  model.RoleDoctor,
	}, "secret")

	router := setupPortal(t, fake)

	// Add a morning template for one date.
	w := doJSON(t, router, http.MethodPost, "/portal/v1/availability/slots", doctorToken, map[string]any{
		"date":       "2026-09-07",
		"start_time": "09:00",
		"end_time":   "10:00",
		"duration":   30,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Availability map[string][]model.Slot `json:"availability"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Availability["2026-09-07"], 2)
	assert.Equal(t, "09:00", resp.Availability["2026-09-07"][0].Time)
	assert.Equal(t, "09:30", resp.Availability["2026-09-07"][1].Time)

	// A booked slot cannot be deleted.
	booked := resp.Availability["2026-09-07"][0]
	fake.availability["2026-09-07"][0].IsBooked = true
	fake.availability["2026-09-07"][0].PatientID = "user-1"

	w = doJSON(t, router, http.MethodDelete, "/portal/v1/availability/2026-09-07/slots/"+booked.ID, doctorToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "SLOT_BOOKED")

	// An open slot can.
	open := resp.Availability["2026-09-07"][1]
	w = doJSON(t, router, http.MethodDelete, "/portal/v1/availability/2026-09-07/slots/"+open.ID, doctorToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Availability["2026-09-07"], 1)
}
