package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/backend"
	"github.com/medconnect/portal-gateway/pkg/model"
)

// ErrSlotBooked is returned when a doctor tries to delete a slot a patient has
// already booked.
var ErrSlotBooked = errors.New("booked slots cannot be deleted")

// ErrSlotNotFound is returned when the referenced slot does not exist.
var ErrSlotNotFound = errors.New("slot not found")

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// recurrenceWeeks is how far ahead a recurring template is applied.
	recurrenceWeeks = 8
)

// GenerateSlots expands a start/end/duration template into concrete slots.
// Slots start at the window start and step by the duration; a slot is emitted
// only while its start lies strictly before the window end, so the end time
// itself never starts a slot.
func GenerateSlots(date, start, end string, duration int) ([]model.Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", duration)
	}

	startAt, err := time.Parse(timeLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: %w", start, err)
	}
	endAt, err := time.Parse(timeLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end time %q: %w", end, err)
	}
	if !startAt.Before(endAt) {
		return nil, fmt.Errorf("start time %s must be before end time %s", start, end)
	}

	var slots []model.Slot
	step := time.Duration(duration) * time.Minute
	for at := startAt; at.Before(endAt); at = at.Add(step) {
		slots = append(slots, model.Slot{
			ID:       uuid.New().String(),
			Date:     date,
			Time:     at.Format(timeLayout),
			Duration: duration,
		})
	}
	return slots, nil
}

// RecurrenceDates lists the dates within the next eight weeks after baseDate
// that fall on one of the selected weekdays. baseDate itself is not included;
// it gets its slots directly.
func RecurrenceDates(baseDate string, weekdays []time.Weekday) ([]string, error) {
	base, err := time.Parse(dateLayout, baseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", baseDate, err)
	}

	selected := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		selected[wd] = true
	}

	var dates []string
	for i := 1; i <= recurrenceWeeks*7; i++ {
		d := base.AddDate(0, 0, i)
		if selected[d.Weekday()] {
			dates = append(dates, d.Format(dateLayout))
		}
	}
	return dates, nil
}

// AvailabilityBackend is the slice of the backend client the editor needs.
type AvailabilityBackend interface {
	GetAvailability(ctx context.Context, token string) (backend.Availability, error)
	SaveAvailability(ctx context.Context, token, date string, slots []model.Slot) error
}

// AvailabilityService is the doctor's slot editor. Each mutation loads the
// saved availability, applies the change, and writes the affected dates back.
type AvailabilityService struct {
	backend AvailabilityBackend
	logger  *zap.Logger
}

// NewAvailabilityService creates the availability editor.
func NewAvailabilityService(b AvailabilityBackend, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		backend: b,
		logger:  logger,
	}
}

// Load returns the doctor's saved availability keyed by date.
func (s *AvailabilityService) Load(ctx context.Context, token string) (backend.Availability, error) {
	availability, err := s.backend.GetAvailability(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	return availability, nil
}

// SlotTemplate is one add-slots request from the editor.
type SlotTemplate struct {
	Date      string
	Start     string
	End       string
	Duration  int
	Recurring bool
	Weekdays  []time.Weekday
}

// AddSlots generates slots from the template for the base date and, when
// recurring, for the matching weekdays over the following eight weeks. Times
// already present on a date are kept as they are; the template never
// overwrites an existing slot.
func (s *AvailabilityService) AddSlots(ctx context.Context, token string, tpl SlotTemplate) (backend.Availability, error) {
	availability, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	dates := []string{tpl.Date}
	if tpl.Recurring {
		recurring, err := RecurrenceDates(tpl.Date, tpl.Weekdays)
		if err != nil {
			return nil, err
		}
		dates = append(dates, recurring...)
	}

	for _, date := range dates {
		generated, err := GenerateSlots(date, tpl.Start, tpl.End, tpl.Duration)
		if err != nil {
			return nil, err
		}

		merged := mergeSlots(availability[date], generated)
		if err := s.backend.SaveAvailability(ctx, token, date, merged); err != nil {
			return nil, fmt.Errorf("failed to save availability for %s: %w", date, err)
		}
		availability[date] = merged
	}

	s.logger.Info("availability updated",
		zap.String("base_date", tpl.Date),
		zap.Int("dates", len(dates)),
		zap.Bool("recurring", tpl.Recurring),
	)

	return availability, nil
}

// DeleteSlot removes one unbooked slot from a date. Booked slots are
// untouchable; a patient is attached to them.
func (s *AvailabilityService) DeleteSlot(ctx context.Context, token, date, slotID string) (backend.Availability, error) {
	availability, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	slots, ok := availability[date]
	if !ok {
		return nil, ErrSlotNotFound
	}

	remaining := make([]model.Slot, 0, len(slots))
	found := false
	for _, slot := range slots {
		if slot.ID == slotID {
			if slot.IsBooked {
				return nil, ErrSlotBooked
			}
			found = true
			continue
		}
		remaining = append(remaining, slot)
	}
	if !found {
		return nil, ErrSlotNotFound
	}

	if err := s.backend.SaveAvailability(ctx, token, date, remaining); err != nil {
		return nil, fmt.Errorf("failed to save availability for %s: %w", date, err)
	}
	availability[date] = remaining

	return availability, nil
}

// mergeSlots appends generated slots whose time is not already taken on the
// date, keeping existing slots (and their bookings) intact.
func mergeSlots(existing, generated []model.Slot) []model.Slot {
	taken := make(map[string]bool, len(existing))
	for _, s := range existing {
		taken[s.Time] = true
	}

	merged := append([]model.Slot{}, existing...)
	for _, s := range generated {
		if !taken[s.Time] {
			merged = append(merged, s)
		}
	}
	return merged
}
