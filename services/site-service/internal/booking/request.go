package booking

import (
	"errors"
	"strings"
	"time"
)

// Request is the booking form as posted by the site.
type Request struct {
	CustomerName    string `json:"customerName" validate:"required,min=2,max=200"`
	CustomerEmail   string `json:"customerEmail" validate:"required,email,max=320"`
	CustomerPhone   string `json:"customerPhone" validate:"omitempty,max=40"`
	ServiceName     string `json:"serviceName" validate:"required,max=200"`
	ServiceID       string `json:"serviceId" validate:"omitempty,max=200"`
	PriceID         string `json:"priceId" validate:"omitempty,max=200"`
	PriceAmount     *int64 `json:"priceAmount" validate:"omitempty,gte=0"`
	AppointmentDate string `json:"appointmentDate" validate:"required"`
	PayNow          bool   `json:"payNow"`
	Notes           string `json:"notes" validate:"omitempty,max=2000"`

	// ReturnBaseURL is the scheme and host Stripe redirects back to.
	ReturnBaseURL string `json:"-"`
}

func (r *Request) normalize() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.ServiceName = strings.TrimSpace(r.ServiceName)
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.PriceID = strings.TrimSpace(r.PriceID)
	r.AppointmentDate = strings.TrimSpace(r.AppointmentDate)
	r.Notes = strings.TrimSpace(r.Notes)
}

var localLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseAppointmentDate accepts RFC 3339 timestamps, or wall-clock timestamps
// without an offset which are read in loc.
func ParseAppointmentDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid date-time")
}

// ParseDate returns midnight in loc of the calendar date written in s. For a
// timestamp with an offset the written date is kept, not the date the instant
// falls on in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := ParseAppointmentDate(s, loc)
	if err != nil {
		return time.Time{}, errors.New("invalid date")
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}
