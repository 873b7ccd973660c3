package model

import "time"

// Role determines which dashboard a user sees and which routes they may enter.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Label returns the human-facing name for a role ("Patient", "Doctor", "Admin").
func (r Role) Label() string {
	switch r {
	case RolePatient:
		return "Patient"
	case RoleDoctor:
		return "Doctor"
	case RoleAdmin:
		return "Admin"
	default:
		return string(r)
	}
}

// Known reports whether the role is one of the three supported roles.
func (r Role) Known() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

// Identity is the authenticated user as reported by the backend.
// Specialization and LicenseNumber are only populated for doctors.
type Identity struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Role           Role   `json:"user_type"`
	Phone          string `json:"phone,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	LicenseNumber  string `json:"license_number,omitempty"`
}

// Urgency classifies how quickly a patient should be seen.
type Urgency string

const (
	UrgencyRoutine Urgency = "routine"
	UrgencyUrgent  Urgency = "urgent"
)

// AnalysisResult is produced once per booking conversation and immutable
// afterward. Degraded marks results produced by the offline analyzer rather
// than the backend; they must never be presented as live data.
type AnalysisResult struct {
	Urgency         Urgency  `json:"urgency"`
	Specialty       string   `json:"specialty"`
	Recommendations []string `json:"recommendations"`
	Degraded        bool     `json:"degraded,omitempty"`
}

// GeneralPractice is the default specialty; an analysis that lands here does
// not narrow the doctor list.
const GeneralPractice = "General Practice"

// Slot is a bookable time interval for a doctor. Once booked it must never be
// offered again, and the availability editor may not delete it.
type Slot struct {
	ID        string `json:"id,omitempty"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Duration  int    `json:"duration"`
	IsBooked  bool   `json:"is_booked"`
	PatientID string `json:"patient_id,omitempty"`
}

// DoctorSummary is a doctor as listed during booking, with the slots they
// currently offer.
type DoctorSummary struct {
	ID             string  `json:"doctor_id"`
	Name           string  `json:"doctor_name"`
	Specialty      string  `json:"specialty"`
	Experience     string  `json:"experience"`
	Rating         float64 `json:"rating"`
	AvailableSlots []Slot  `json:"available_slots"`
}

// BookingDraft accumulates the choices made during one booking conversation.
// Each field is set exactly once, in order, and never reset except by starting
// a new conversation.
type BookingDraft struct {
	Symptoms       string         `json:"symptoms"`
	Urgency        Urgency        `json:"urgency"`
	Specialty      string         `json:"specialty"`
	SelectedDoctor *DoctorSummary `json:"selected_doctor,omitempty"`
	SelectedSlot   *Slot          `json:"selected_slot,omitempty"`
}

// Speaker identifies who authored a conversation turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message in the booking conversation transcript. The transcript
// is append-only; turns are never mutated or removed after creation.
type Turn struct {
	ID        string         `json:"id"`
	Speaker   Speaker        `json:"speaker"`
	Text      string         `json:"text"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Appointment is a booked appointment as returned by the backend.
type Appointment struct {
	ID          string  `json:"id"`
	PatientID   string  `json:"patient_id"`
	DoctorID    string  `json:"doctor_id"`
	DoctorName  string  `json:"doctor_name"`
	PatientName string  `json:"patient_name"`
	Date        string  `json:"appointment_date"`
	Time        string  `json:"appointment_time"`
	Duration    int     `json:"duration"`
	Symptoms    string  `json:"symptoms"`
	Status      string  `json:"status"`
	Urgency     Urgency `json:"urgency"`
}
