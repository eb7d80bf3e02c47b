package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lbsconnect/examcenter/libs/kafkax"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestAppointmentEvent(t *testing.T) {
	at := time.Date(2024, 6, 10, 14, 0, 0, 0, time.FixedZone("CDT", -5*3600))
	evt, err := AppointmentEvent(TypeAppointmentBooked, AppointmentPayload{
		AppointmentID: "a1",
		ServiceName:   "Notary Service",
		Status:        "pending",
	}, at)
	if err != nil {
		t.Fatalf("AppointmentEvent: %v", err)
	}
	if evt.AggregateType != "appointment" || evt.AggregateID != "a1" || evt.EventType != TypeAppointmentBooked {
		t.Fatalf("unexpected envelope %+v", evt)
	}
	var p AppointmentPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.OccurredAt != "2024-06-10T19:00:00Z" {
		t.Fatalf("unexpected occurred_at %q", p.OccurredAt)
	}
}

func TestMessagesCarryHeaders(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	const tp = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	msgs := Messages(context.Background(), []Record{
		{ID: 1, EventID: "e1", AggregateID: "a1", EventType: TypeAppointmentPaid, Payload: []byte(`{}`), Traceparent: tp},
		{ID: 2, EventID: "e2", AggregateID: "a2", EventType: TypeAppointmentBooked, Payload: []byte(`{}`)},
	})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Topic != TypeAppointmentPaid || string(msgs[0].Key) != "a1" {
		t.Fatalf("unexpected message %+v", msgs[0])
	}
	if got := kafkax.HeaderValue(msgs[0].Headers, "traceparent"); got != tp {
		t.Fatalf("expected traceparent %q, got %q", tp, got)
	}
	if got := kafkax.HeaderValue(msgs[1].Headers, kafkax.HeaderEventID); got != "e2" {
		t.Fatalf("expected event id e2, got %q", got)
	}
	if got := kafkax.HeaderValue(msgs[1].Headers, "traceparent"); got != "" {
		t.Fatalf("expected no traceparent, got %q", got)
	}
}
