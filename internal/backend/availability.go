package backend

import (
	"context"
	"net/http"

	"github.com/medconnect/portal-gateway/pkg/model"
)

// Availability maps date keys (YYYY-MM-DD) to the slot set saved for that day.
type Availability map[string][]model.Slot

// GetAvailability loads the doctor's saved availability.
func (c *Client) GetAvailability(ctx context.Context, token string) (Availability, error) {
	var resp struct {
		Availability Availability `json:"availability"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/doctor/availability", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Availability == nil {
		resp.Availability = Availability{}
	}
	return resp.Availability, nil
}

// SaveAvailability replaces the slot set for one date.
func (c *Client) SaveAvailability(ctx context.Context, token, date string, slots []model.Slot) error {
	req := struct {
		Date  string       `json:"date"`
		Slots []model.Slot `json:"slots"`
	}{Date: date, Slots: slots}

	return c.do(ctx, http.MethodPost, "/api/doctor/availability", token, req, nil)
}
