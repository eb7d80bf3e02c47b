package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lbsconnect/examcenter/services/site-service/internal/email"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSender) sent() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message(nil), s.msgs...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAppointment() model.Appointment {
	amount := int64(1500)
	return model.Appointment{
		ID:              "a1",
		CustomerName:    "Jane <Doe>",
		CustomerEmail:   "jane@x.com",
		ServiceName:     "Notary Service",
		PriceAmount:     &amount,
		AppointmentDate: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
		Status:          model.StatusPending,
		PaymentStatus:   model.PaymentUnpaid,
	}
}

func TestAppointmentBookedSendsConfirmationAndInvite(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(discardLogger(), DispatcherConfig{Workers: 2, QueueSize: 4})
	n := New(sender, d, Config{Location: time.UTC}, discardLogger())

	n.AppointmentBooked(testAppointment())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	msgs := sender.sent()
	require.Len(t, msgs, 2)

	var confirmation, invite email.Message
	for _, m := range msgs {
		if m.To[0] == "jane@x.com" {
			confirmation = m
		} else {
			invite = m
		}
	}
	assert.Contains(t, confirmation.Subject, "Notary Service")
	assert.Contains(t, confirmation.HTML, "Jane &lt;Doe&gt;")
	assert.Contains(t, confirmation.HTML, "Monday, June 10, 2024 at 9:00 AM")

	assert.Equal(t, DefaultInternalEmail, invite.To[0])
	assert.Equal(t, "jane@x.com", invite.ReplyTo)
	assert.Contains(t, invite.HTML, "$15.00")
	require.Len(t, invite.Attachments, 1)
	assert.Equal(t, "appointment.ics", invite.Attachments[0].Filename)
	assert.Contains(t, string(invite.Attachments[0].Content), "BEGIN:VCALENDAR")
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(discardLogger(), DispatcherConfig{Workers: 1, QueueSize: 1})
	noop := func(context.Context) error { return nil }
	assert.True(t, d.Enqueue(Job{Kind: "a", Run: noop}))
	assert.False(t, d.Enqueue(Job{Kind: "b", Run: noop}))
}

func TestDispatcherRejectsAfterStop(t *testing.T) {
	d := NewDispatcher(discardLogger(), DispatcherConfig{Workers: 2, QueueSize: 4})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	var ran int
	accepted := d.Enqueue(Job{Kind: "late", Run: func(context.Context) error {
		ran++
		return nil
	}})
	assert.False(t, accepted)
	assert.Zero(t, ran)
	assert.Empty(t, d.jobs)
}

func TestDispatcherSwallowsErrors(t *testing.T) {
	d := NewDispatcher(discardLogger(), DispatcherConfig{Workers: 1, QueueSize: 2})
	var ran []string
	var mu sync.Mutex
	record := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			ran = append(ran, name)
			mu.Unlock()
			return err
		}
	}
	d.Enqueue(Job{Kind: "first", Run: record("first", errors.New("smtp down"))})
	d.Enqueue(Job{Kind: "second", Run: record("second", nil)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)
	assert.ElementsMatch(t, []string{"first", "second"}, ran)
}

func TestSendReminderReturnsSenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("boom")}
	n := New(sender, NewDispatcher(discardLogger(), DispatcherConfig{}), Config{Location: time.UTC}, discardLogger())
	assert.Error(t, n.SendReminder(context.Background(), testAppointment()))

	sender.err = nil
	require.NoError(t, n.SendReminder(context.Background(), testAppointment()))
	msgs := sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Reminder: Notary Service tomorrow at 9:00 AM", msgs[0].Subject)
}

func TestPaymentMessage(t *testing.T) {
	n := New(&recordingSender{}, NewDispatcher(discardLogger(), DispatcherConfig{}), Config{}, discardLogger())
	msg, err := n.paymentMessage(Payment{SessionID: "cs_test_1", ProductName: "Passport Photos", Amount: 1500, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "New Payment Received - $15.00 for Passport Photos", msg.Subject)
	assert.Contains(t, msg.HTML, "$15.00 USD")
	assert.Contains(t, msg.HTML, "cs_test_1")
}

func TestContactMessage(t *testing.T) {
	n := New(&recordingSender{}, NewDispatcher(discardLogger(), DispatcherConfig{}), Config{}, discardLogger())
	msg, err := n.contactMessage(model.ContactSubmission{Name: "Sam", Email: "sam@x.com", Message: "hello\nthere"})
	require.NoError(t, err)
	assert.Equal(t, "New Contact Form Submission from Sam", msg.Subject)
	assert.Equal(t, "sam@x.com", msg.ReplyTo)
	assert.NotContains(t, msg.HTML, "Phone:")
	assert.Contains(t, msg.HTML, DefaultAddress)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$15.00", FormatAmount(1500, "usd"))
	assert.Equal(t, "$0.05", FormatAmount(5, "USD"))
	assert.Equal(t, "EUR35.50", FormatAmount(3550, "eur"))
}

func TestBuildInvite(t *testing.T) {
	appt := testAppointment()
	out := BuildInvite(appt, Invite{
		OrganizerName:  DefaultBusinessName,
		OrganizerEmail: DefaultInternalEmail,
		Location:       "Houston",
		Stamp:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	for _, want := range []string{
		"METHOD:REQUEST",
		"UID:a1@lbs4.com",
		"DTSTART:20240610T090000Z",
		"DTEND:20240610T100000Z",
		"STATUS:CONFIRMED",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in calendar:\n%s", want, out)
		}
	}
}
