// Package booking computes availability and books appointment slots.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lbsconnect/examcenter/services/site-service/internal/availability"
	"github.com/lbsconnect/examcenter/services/site-service/internal/hours"
	"github.com/lbsconnect/examcenter/services/site-service/internal/metrics"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/outbox"
	"github.com/lbsconnect/examcenter/services/site-service/internal/payments"
	"github.com/lbsconnect/examcenter/services/site-service/internal/validation"
)

const bookedMessage = "Appointment booked successfully. We will contact you to confirm."

// Store is the appointment persistence the service needs.
type Store interface {
	Create(ctx context.Context, appt model.Appointment, events ...outbox.Event) error
	Get(ctx context.Context, id string) (model.Appointment, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]model.Appointment, error)
	AttachCheckoutSession(ctx context.Context, id, sessionID string) (model.Appointment, error)
	MarkPaid(ctx context.Context, id string, event func(model.Appointment) (outbox.Event, error)) (model.Appointment, bool, error)
	UpdateStatus(ctx context.Context, id, status string, event func(model.Appointment) (outbox.Event, error)) (model.Appointment, error)
}

type Checkout interface {
	CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (payments.Session, error)
}

// Notifier must not block; delivery happens in the background.
type Notifier interface {
	AppointmentBooked(appt model.Appointment)
}

type Config struct {
	Policy hours.Policy
	// SuccessPath and CancelPath are appended to the request's return base URL.
	SuccessPath string
	CancelPath  string

	Now   func() time.Time
	NewID func() string
}

type Service struct {
	store    Store
	checkout Checkout
	notifier Notifier
	logger   *slog.Logger
	policy   hours.Policy
	cfg      Config
}

func NewService(store Store, checkout Checkout, notifier Notifier, logger *slog.Logger, cfg Config) *Service {
	if cfg.SuccessPath == "" {
		cfg.SuccessPath = "/appointments/success"
	}
	if cfg.CancelPath == "" {
		cfg.CancelPath = "/appointments/cancel"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{
		store:    store,
		checkout: checkout,
		notifier: notifier,
		logger:   logger,
		policy:   cfg.Policy,
		cfg:      cfg,
	}
}

func (s *Service) Policy() hours.Policy {
	return s.policy
}

type Availability struct {
	Date          string                    `json:"date"`
	Slots         []time.Time               `json:"slots"`
	BusinessHours map[string]hours.DayHours `json:"businessHours"`
	DaysOpen      []string                  `json:"daysOpen"`
}

// AvailableSlots returns the free slots of date's calendar day. A store failure
// is logged and yields no slots.
func (s *Service) AvailableSlots(ctx context.Context, date time.Time) Availability {
	out := Availability{
		Date:          date.In(s.policy.Location()).Format("2006-01-02"),
		Slots:         []time.Time{},
		BusinessHours: s.policy.Describe(),
		DaysOpen:      s.policy.DaysOpen(),
	}
	candidates := availability.Slots(s.policy, date)
	if len(candidates) == 0 {
		return out
	}

	start, end := availability.DayBounds(s.policy, date)
	appts, err := s.store.ListBetween(ctx, start, end)
	if err != nil {
		s.logger.Error("availability query failed", "date", out.Date, "err", err)
		return out
	}
	out.Slots = availability.Free(candidates, liveStarts(appts))
	return out
}

type Result struct {
	Appointment model.Appointment `json:"appointment"`
	CheckoutURL string            `json:"checkoutUrl,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// Book validates and stores a new appointment. Errors are *validation.Error,
// ErrOutsideBusinessHours, model.ErrSlotTaken or an unexpected failure.
func (s *Service) Book(ctx context.Context, req Request) (Result, error) {
	req.normalize()
	if err := validation.Struct(req); err != nil {
		metrics.IncBooking("invalid")
		return Result{}, err
	}
	at, err := ParseAppointmentDate(req.AppointmentDate, s.policy.Location())
	if err != nil {
		metrics.IncBooking("invalid")
		return Result{}, validation.Field("appointmentDate", "must be a valid date-time")
	}
	if !s.policy.Contains(at) {
		metrics.IncBooking("outside_hours")
		return Result{}, ErrOutsideBusinessHours
	}

	taken, err := s.slotTaken(ctx, at)
	if err != nil {
		metrics.IncBooking("error")
		return Result{}, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		metrics.IncBooking("conflict")
		return Result{}, model.ErrSlotTaken
	}

	now := s.cfg.Now().UTC()
	appt := model.Appointment{
		ID:              s.cfg.NewID(),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ServiceName:     req.ServiceName,
		ServiceID:       req.ServiceID,
		PriceID:         req.PriceID,
		PriceAmount:     req.PriceAmount,
		AppointmentDate: at.UTC(),
		Status:          model.StatusPending,
		PaymentStatus:   model.PaymentUnpaid,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	evt, err := outbox.AppointmentEvent(outbox.TypeAppointmentBooked, eventPayload(appt), now)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.Create(ctx, appt, evt); err != nil {
		if errors.Is(err, model.ErrSlotTaken) {
			metrics.IncBooking("conflict")
			return Result{}, model.ErrSlotTaken
		}
		metrics.IncBooking("error")
		return Result{}, fmt.Errorf("create appointment: %w", err)
	}
	metrics.IncBooking("created")
	s.logger.Info("appointment booked", "appointment_id", appt.ID, "appointment_date", appt.AppointmentDate.Format(time.RFC3339))

	res := Result{Appointment: appt}
	if req.PayNow && req.PriceID != "" {
		if updated, checkoutURL, ok := s.startCheckout(ctx, appt, req.ReturnBaseURL); ok {
			res.Appointment = updated
			res.CheckoutURL = checkoutURL
		}
	}
	s.notifier.AppointmentBooked(res.Appointment)

	if res.CheckoutURL == "" {
		res.Message = bookedMessage
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.Appointment, error) {
	return s.store.Get(ctx, strings.TrimSpace(id))
}

// MarkPaid is idempotent: an already paid appointment is returned unchanged.
func (s *Service) MarkPaid(ctx context.Context, id string) (model.Appointment, error) {
	appt, changed, err := s.store.MarkPaid(ctx, strings.TrimSpace(id), s.eventFor(outbox.TypeAppointmentPaid))
	if err != nil {
		return model.Appointment{}, err
	}
	if changed {
		s.logger.Info("appointment paid", "appointment_id", appt.ID)
	}
	return appt, nil
}

// UpdateStatus is the administrative confirm/cancel transition.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (model.Appointment, error) {
	if !model.ValidStatus(status) || status == model.StatusPending {
		return model.Appointment{}, ErrInvalidStatus
	}
	appt, err := s.store.UpdateStatus(ctx, strings.TrimSpace(id), status, s.eventFor(outbox.TypeAppointmentStatusChanged))
	if err != nil {
		return model.Appointment{}, err
	}
	s.logger.Info("appointment status changed", "appointment_id", appt.ID, "status", appt.Status)
	return appt, nil
}

// ListDay returns every appointment of date's calendar day, cancelled included.
func (s *Service) ListDay(ctx context.Context, date time.Time) ([]model.Appointment, error) {
	start, end := availability.DayBounds(s.policy, date)
	return s.store.ListBetween(ctx, start, end)
}

func (s *Service) slotTaken(ctx context.Context, at time.Time) (bool, error) {
	appts, err := s.store.ListBetween(ctx, at, at.Add(model.SlotDuration-time.Nanosecond))
	if err != nil {
		return false, err
	}
	for _, a := range appts {
		if a.Live() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) startCheckout(ctx context.Context, appt model.Appointment, baseURL string) (model.Appointment, string, bool) {
	if s.checkout == nil {
		s.logger.Warn("pay now requested but payments are not configured", "appointment_id", appt.ID)
		return appt, "", false
	}
	base := strings.TrimRight(baseURL, "/")
	id := url.QueryEscape(appt.ID)
	sess, err := s.checkout.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		PriceID:       appt.PriceID,
		SuccessURL:    base + s.cfg.SuccessPath + "?session_id={CHECKOUT_SESSION_ID}&appointment_id=" + id,
		CancelURL:     base + s.cfg.CancelPath + "?appointment_id=" + id,
		CustomerEmail: appt.CustomerEmail,
		Metadata: map[string]string{
			"appointment_id": appt.ID,
			"service_name":   appt.ServiceName,
		},
	})
	if err != nil {
		s.logger.Error("checkout session failed; booking stays unpaid", "appointment_id", appt.ID, "err", err)
		return appt, "", false
	}
	updated, err := s.store.AttachCheckoutSession(ctx, appt.ID, sess.ID)
	if err != nil {
		s.logger.Error("attach checkout session failed", "appointment_id", appt.ID, "session_id", sess.ID, "err", err)
		return appt, "", false
	}
	return updated, sess.URL, true
}

func (s *Service) eventFor(eventType string) func(model.Appointment) (outbox.Event, error) {
	return func(appt model.Appointment) (outbox.Event, error) {
		return outbox.AppointmentEvent(eventType, eventPayload(appt), s.cfg.Now())
	}
}

func eventPayload(appt model.Appointment) outbox.AppointmentPayload {
	return outbox.AppointmentPayload{
		AppointmentID:   appt.ID,
		CustomerEmail:   appt.CustomerEmail,
		ServiceName:     appt.ServiceName,
		AppointmentDate: appt.AppointmentDate.UTC().Format(time.RFC3339),
		Status:          appt.Status,
		PaymentStatus:   appt.PaymentStatus,
	}
}

func liveStarts(appts []model.Appointment) []time.Time {
	out := make([]time.Time, 0, len(appts))
	for _, a := range appts {
		if a.Live() {
			out = append(out, a.AppointmentDate)
		}
	}
	return out
}
