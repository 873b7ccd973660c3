package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/backend"
	"github.com/medconnect/portal-gateway/pkg/model"
)

// ConversationState names a stage of the booking conversation. The flow is
// strictly ordered: symptoms -> analysis -> doctor selection -> slot selection
// -> confirmation -> completed. Analysis is transient; a conversation rests
// there only while the backend call is in flight.
type ConversationState string

const (
	StateSymptoms        ConversationState = "symptoms"
	StateAnalysis        ConversationState = "analysis"
	StateDoctorSelection ConversationState = "doctor_selection"
	StateSlotSelection   ConversationState = "slot_selection"
	StateConfirmation    ConversationState = "confirmation"
	StateCompleted       ConversationState = "completed"
)

// InvalidTransitionError is returned when an input arrives that the current
// state does not accept, such as selecting a doctor before the analysis ran.
type InvalidTransitionError struct {
	State ConversationState
	Input string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("input %q is not accepted in conversation state %q", e.Input, e.State)
}

// ErrRequestPending is returned when a new input arrives while a backend call
// for this conversation is still in flight.
var ErrRequestPending = &InvalidTransitionError{State: StateAnalysis, Input: "concurrent request"}

// AppointmentBackend is the slice of the backend client the conversation needs.
type AppointmentBackend interface {
	AnalyzeSymptoms(ctx context.Context, token, symptoms string) (*model.AnalysisResult, error)
	AvailableDoctors(ctx context.Context, token, specialty, date string) ([]model.DoctorSummary, error)
	BookAppointment(ctx context.Context, token string, req backend.BookingRequest) (*backend.BookingConfirmation, error)
}

// Conversation is one booking dialogue for one patient. All mutation goes
// through its methods; the mutex makes each input atomic so concurrent
// requests cannot interleave state changes. Backend calls run with the lock
// released and their results are applied only if the conversation is still
// alive when they return.
type Conversation struct {
	mu sync.Mutex

	id           string
	patient      model.Identity
	token        string
	state        ConversationState
	pending      bool
	ended        bool
	draft        model.BookingDraft
	analysis     *model.AnalysisResult
	doctors      []model.DoctorSummary
	confirmation *backend.BookingConfirmation
	turns        []model.Turn
	lastActivity time.Time

	backend  AppointmentBackend
	analyzer *OfflineAnalyzer
	logger   *zap.Logger
}

const greetingText = "Hello! I'm your appointment assistant. Please describe your symptoms or the reason for your visit, and I'll help you find the right doctor."

func newConversation(patient model.Identity, token string, b AppointmentBackend, analyzer *OfflineAnalyzer, logger *zap.Logger) *Conversation {
	c := &Conversation{
		id:           uuid.New().String(),
		patient:      patient,
		token:        token,
		state:        StateSymptoms,
		backend:      b,
		analyzer:     analyzer,
		logger:       logger,
		lastActivity: time.Now(),
	}
	c.appendTurn(model.SpeakerAssistant, greetingText, nil)
	return c
}

// ID returns the conversation's identifier.
func (c *Conversation) ID() string {
	return c.id
}

// Snapshot is a read-only view of the conversation for rendering.
type Snapshot struct {
	ID           string                       `json:"id"`
	State        ConversationState            `json:"state"`
	Pending      bool                         `json:"pending"`
	Draft        model.BookingDraft           `json:"draft"`
	Analysis     *model.AnalysisResult        `json:"analysis,omitempty"`
	Doctors      []model.DoctorSummary        `json:"doctors,omitempty"`
	Confirmation *backend.BookingConfirmation `json:"confirmation,omitempty"`
	Turns        []model.Turn                 `json:"turns"`
}

// Snapshot returns a consistent copy of the conversation's visible state.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	turns := make([]model.Turn, len(c.turns))
	copy(turns, c.turns)

	doctors := make([]model.DoctorSummary, len(c.doctors))
	copy(doctors, c.doctors)

	return Snapshot{
		ID:           c.id,
		State:        c.state,
		Pending:      c.pending,
		Draft:        c.draft,
		Analysis:     c.analysis,
		Doctors:      doctors,
		Confirmation: c.confirmation,
		Turns:        turns,
	}
}

// SubmitSymptoms accepts the patient's free-text description, runs the
// analysis, and advances to doctor selection. Free text is only accepted in
// the symptoms state. On analysis failure the conversation returns to the
// symptoms state with an error turn so the patient can try again; when the
// offline analyzer is enabled it answers instead, with the result marked as
// degraded.
func (c *Conversation) SubmitSymptoms(ctx context.Context, symptoms string) error {
	c.mu.Lock()
	if err := c.accept(StateSymptoms, "symptoms"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.appendTurn(model.SpeakerUser, symptoms, nil)
	c.state = StateAnalysis
	c.pending = true
	c.mu.Unlock()

	analysis, analysisErr := c.backend.AnalyzeSymptoms(ctx, c.token, symptoms)
	if analysisErr != nil && c.analyzer != nil {
		c.logger.Warn("symptom analysis unavailable, using offline analyzer",
			zap.String("conversation_id", c.id),
			zap.Error(analysisErr),
		)
		analysis = c.analyzer.Analyze(symptoms)
		analysisErr = nil
	}

	if analysisErr != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.ended {
			return nil
		}
		c.pending = false
		c.state = StateSymptoms
		c.appendTurn(model.SpeakerAssistant,
			"I'm sorry, I couldn't analyze your symptoms right now. Please try describing them again.",
			nil)
		return fmt.Errorf("symptom analysis failed: %w", analysisErr)
	}

	doctors, doctorsErr := c.backend.AvailableDoctors(ctx, c.token, analysis.Specialty, "")
	if doctorsErr != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.ended {
			return nil
		}
		c.pending = false
		c.state = StateSymptoms
		c.appendTurn(model.SpeakerAssistant,
			"I'm sorry, I couldn't load available doctors right now. Please try again.",
			nil)
		return fmt.Errorf("doctor lookup failed: %w", doctorsErr)
	}
	doctors = FilterDoctors(doctors, analysis.Specialty)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return nil
	}

	c.draft.Symptoms = symptoms
	c.draft.Urgency = analysis.Urgency
	c.draft.Specialty = analysis.Specialty
	c.analysis = analysis
	c.doctors = doctors

	analysisPayload := map[string]any{"analysis": analysis}
	if analysis.Degraded {
		analysisPayload["source"] = "offline"
	}
	c.appendTurn(model.SpeakerAssistant, analysisText(analysis), analysisPayload)
	c.appendTurn(model.SpeakerAssistant,
		fmt.Sprintf("I found %d available doctor(s) for you. Please select one to continue:", len(doctors)),
		map[string]any{"doctors": doctors},
	)

	c.state = StateDoctorSelection
	c.pending = false
	return nil
}

// SelectDoctor records the patient's doctor choice and advances to slot
// selection. The doctor must be one of those offered; the choice is
// write-once.
func (c *Conversation) SelectDoctor(doctorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.accept(StateDoctorSelection, "doctor selection"); err != nil {
		return err
	}

	var selected *model.DoctorSummary
	for i := range c.doctors {
		if c.doctors[i].ID == doctorID {
			selected = &c.doctors[i]
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("doctor %q was not offered in this conversation", doctorID)
	}

	chosen := *selected
	c.draft.SelectedDoctor = &chosen

	c.appendTurn(model.SpeakerUser, fmt.Sprintf("I'd like to book an appointment with %s.", chosen.Name), nil)

	open := openSlots(chosen.AvailableSlots)
	c.appendTurn(model.SpeakerAssistant,
		fmt.Sprintf("Great choice! %s (%s) has the following time slots. Please select one:", chosen.Name, chosen.Specialty),
		map[string]any{"slots": open},
	)

	c.state = StateSlotSelection
	return nil
}

// SelectSlot records the chosen time slot and advances to confirmation. Booked
// slots are never offered and cannot be selected.
func (c *Conversation) SelectSlot(date, timeOfDay string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.accept(StateSlotSelection, "slot selection"); err != nil {
		return err
	}

	doctor := c.draft.SelectedDoctor
	var selected *model.Slot
	for i := range doctor.AvailableSlots {
		s := &doctor.AvailableSlots[i]
		if s.Date == date && s.Time == timeOfDay && !s.IsBooked {
			selected = s
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("slot %s %s is not available with %s", date, timeOfDay, doctor.Name)
	}

	chosen := *selected
	c.draft.SelectedSlot = &chosen

	c.appendTurn(model.SpeakerUser, fmt.Sprintf("I'd like the %s slot on %s.", chosen.Time, chosen.Date), nil)
	c.appendTurn(model.SpeakerAssistant,
		fmt.Sprintf("Please confirm your appointment: %s (%s) on %s at %s, %d minutes.",
			doctor.Name, doctor.Specialty, chosen.Date, chosen.Time, chosen.Duration),
		map[string]any{"draft": c.draft},
	)

	c.state = StateConfirmation
	return nil
}

// Confirm books the drafted appointment. On backend failure the conversation
// stays in the confirmation state so the patient can retry.
func (c *Conversation) Confirm(ctx context.Context) (*backend.BookingConfirmation, error) {
	c.mu.Lock()
	if err := c.accept(StateConfirmation, "confirmation"); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.appendTurn(model.SpeakerUser, "Yes, please book this appointment.", nil)
	c.pending = true

	req := backend.BookingRequest{
		PatientID:       c.patient.ID,
		DoctorID:        c.draft.SelectedDoctor.ID,
		AppointmentDate: c.draft.SelectedSlot.Date,
		AppointmentTime: c.draft.SelectedSlot.Time,
		Duration:        c.draft.SelectedSlot.Duration,
		Symptoms:        c.draft.Symptoms,
		Urgency:         c.draft.Urgency,
	}
	c.mu.Unlock()

	confirmation, err := c.backend.BookAppointment(ctx, c.token, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return nil, nil
	}
	c.pending = false

	if err != nil {
		c.appendTurn(model.SpeakerAssistant,
			"I'm sorry, the booking could not be completed. Please try confirming again.",
			nil)
		return nil, fmt.Errorf("booking failed: %w", err)
	}

	c.confirmation = confirmation
	c.appendTurn(model.SpeakerAssistant,
		fmt.Sprintf("Your appointment has been booked successfully! Confirmation code: %s. %s will see you on %s at %s.",
			confirmation.ConfirmationCode, c.draft.SelectedDoctor.Name,
			c.draft.SelectedSlot.Date, c.draft.SelectedSlot.Time),
		map[string]any{"confirmation": confirmation},
	)
	c.state = StateCompleted

	c.logger.Info("appointment booked",
		zap.String("conversation_id", c.id),
		zap.String("patient_id", c.patient.ID),
		zap.String("doctor_id", req.DoctorID),
		zap.String("confirmation_code", confirmation.ConfirmationCode),
	)

	return confirmation, nil
}

// accept validates that the conversation is alive, idle, and in the expected
// state. Callers hold the mutex.
func (c *Conversation) accept(expected ConversationState, input string) error {
	if c.ended {
		return &InvalidTransitionError{State: c.state, Input: input}
	}
	if c.pending {
		return ErrRequestPending
	}
	if c.state != expected {
		return &InvalidTransitionError{State: c.state, Input: input}
	}
	c.lastActivity = time.Now()
	return nil
}

// appendTurn adds a transcript entry. Callers hold the mutex except during
// construction.
func (c *Conversation) appendTurn(speaker model.Speaker, text string, payload map[string]any) {
	c.turns = append(c.turns, model.Turn{
		ID:        uuid.New().String(),
		Speaker:   speaker,
		Text:      text,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

// end marks the conversation dead. Any in-flight backend response is dropped
// when it returns.
func (c *Conversation) end() {
	c.mu.Lock()
	c.ended = true
	c.mu.Unlock()
}

func (c *Conversation) expired(ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastActivity) > ttl
}

// FilterDoctors narrows the doctor list to the analyzed specialty. The
// general-practice default does not narrow: every doctor can take those
// consultations.
func FilterDoctors(doctors []model.DoctorSummary, specialty string) []model.DoctorSummary {
	if specialty == "" || specialty == model.GeneralPractice {
		return doctors
	}

	filtered := make([]model.DoctorSummary, 0, len(doctors))
	for _, d := range doctors {
		if d.Specialty == specialty {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func openSlots(slots []model.Slot) []model.Slot {
	open := make([]model.Slot, 0, len(slots))
	for _, s := range slots {
		if !s.IsBooked {
			open = append(open, s)
		}
	}
	return open
}

func analysisText(a *model.AnalysisResult) string {
	text := fmt.Sprintf("Based on your symptoms, I recommend seeing a %s specialist. Urgency: %s.", a.Specialty, a.Urgency)
	if a.Degraded {
		text += " (Note: our analysis service is temporarily unavailable, so this is a basic keyword assessment.)"
	}
	return text
}
