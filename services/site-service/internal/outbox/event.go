package outbox

import (
	"encoding/json"
	"time"
)

const (
	TypeAppointmentBooked        = "site.appointment.booked.v1"
	TypeAppointmentPaid          = "site.appointment.payment_completed.v1"
	TypeAppointmentStatusChanged = "site.appointment.status_changed.v1"
)

// Event is the envelope written to outbox_events. The Kafka topic equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type AppointmentPayload struct {
	AppointmentID   string `json:"appointment_id"`
	CustomerEmail   string `json:"customer_email"`
	ServiceName     string `json:"service_name"`
	AppointmentDate string `json:"appointment_date"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	OccurredAt      string `json:"occurred_at"`
}

// AppointmentEvent builds an appointment aggregate event.
func AppointmentEvent(eventType string, p AppointmentPayload, at time.Time) (Event, error) {
	p.OccurredAt = at.UTC().Format(time.RFC3339)
	raw, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   p.AppointmentID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}
