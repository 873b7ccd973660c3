package service

import (
	"strings"

	"github.com/medconnect/portal-gateway/pkg/model"
)

// OfflineAnalyzer is a keyword-based stand-in for the backend symptom
// analysis, used only when the backend call fails and degraded mode is
// enabled. Every result it produces is marked Degraded so the conversation
// can surface it as such; offline results are never presented as live data.
type OfflineAnalyzer struct{}

var urgentKeywords = []string{
	"chest pain", "severe pain", "severe", "difficulty breathing", "blood", "emergency",
}

var specialtyKeywords = []struct {
	keyword   string
	specialty string
}{
	{"heart", "Cardiology"},
	{"chest", "Cardiology"},
	{"cardiac", "Cardiology"},
	{"skin", "Dermatology"},
	{"rash", "Dermatology"},
	{"acne", "Dermatology"},
	{"bone", "Orthopedics"},
	{"joint", "Orthopedics"},
	{"fracture", "Orthopedics"},
	{"mental", "Psychiatry"},
	{"anxiety", "Psychiatry"},
	{"depression", "Psychiatry"},
	{"eye", "Ophthalmology"},
	{"vision", "Ophthalmology"},
	{"ear", "ENT"},
	{"throat", "ENT"},
	{"nose", "ENT"},
}

// Analyze classifies free-text symptoms by keyword lookup.
func (a *OfflineAnalyzer) Analyze(symptoms string) *model.AnalysisResult {
	lower := strings.ToLower(symptoms)

	urgency := model.UrgencyRoutine
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			urgency = model.UrgencyUrgent
			break
		}
	}

	specialty := model.GeneralPractice
	for _, m := range specialtyKeywords {
		if strings.Contains(lower, m.keyword) {
			specialty = m.specialty
			break
		}
	}

	var recommendations []string
	if urgency == model.UrgencyUrgent {
		recommendations = []string{
			"Based on your symptoms, this appears to be an urgent case",
			"I recommend consulting with a " + specialty + " specialist as soon as possible",
			"I'll help you find the earliest available appointments",
		}
	} else {
		recommendations = []string{
			"Based on your symptoms, this appears to be a routine consultation",
			"I recommend consulting with a " + specialty + " specialist",
			"I'll help you find convenient appointment times",
		}
	}

	return &model.AnalysisResult{
		Urgency:         urgency,
		Specialty:       specialty,
		Recommendations: recommendations,
		Degraded:        true,
	}
}
