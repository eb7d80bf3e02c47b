package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lbsconnect/examcenter/services/site-service/internal/booking"
	"github.com/lbsconnect/examcenter/services/site-service/internal/hours"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/notify"
	"github.com/lbsconnect/examcenter/services/site-service/internal/payments"
)

type fakeAppointments struct {
	mu         sync.Mutex
	appts      map[string]model.Appointment
	bookErr    error
	lastBook   booking.Request
	lastDay    time.Time
	paidCalls  int
	markErr    error
	statusSeen string
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{appts: map[string]model.Appointment{}}
}

func (f *fakeAppointments) Policy() hours.Policy { return hours.Default(time.UTC) }

func (f *fakeAppointments) AvailableSlots(_ context.Context, date time.Time) booking.Availability {
	p := f.Policy()
	return booking.Availability{
		Date:          date.Format("2006-01-02"),
		Slots:         []time.Time{date.Add(8 * time.Hour), date.Add(9 * time.Hour)},
		BusinessHours: p.Describe(),
		DaysOpen:      p.DaysOpen(),
	}
}

func (f *fakeAppointments) Book(_ context.Context, req booking.Request) (booking.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBook = req
	if f.bookErr != nil {
		return booking.Result{}, f.bookErr
	}
	appt := model.Appointment{
		ID:            "appt-1",
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ServiceName:   req.ServiceName,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentUnpaid,
	}
	f.appts[appt.ID] = appt
	if req.PayNow {
		return booking.Result{Appointment: appt, CheckoutURL: "https://checkout.stripe.com/c/pay/cs_1"}, nil
	}
	return booking.Result{Appointment: appt, Message: "Appointment booked successfully. We will contact you to confirm."}, nil
}

func (f *fakeAppointments) Get(_ context.Context, id string) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, model.ErrNotFound
	}
	return a, nil
}

func (f *fakeAppointments) MarkPaid(_ context.Context, id string) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paidCalls++
	if f.markErr != nil {
		return model.Appointment{}, f.markErr
	}
	a, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, model.ErrNotFound
	}
	a.PaymentStatus = model.PaymentPaid
	f.appts[id] = a
	return a, nil
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, id, status string) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusSeen = status
	if status != model.StatusConfirmed && status != model.StatusCancelled {
		return model.Appointment{}, booking.ErrInvalidStatus
	}
	a, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, model.ErrNotFound
	}
	a.Status = status
	f.appts[id] = a
	return a, nil
}

func (f *fakeAppointments) ListDay(_ context.Context, date time.Time) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDay = date
	var out []model.Appointment
	for _, a := range f.appts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointments) paid(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appts[id].PaymentStatus == model.PaymentPaid
}

type fakeCatalog struct {
	products    []model.Product
	prices      map[string][]model.Price
	err         error
	invalidated int
}

func (f *fakeCatalog) Products(context.Context) ([]model.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) ProductsWithPrices(context.Context) ([]model.ProductWithPrices, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ProductWithPrices
	for _, p := range f.products {
		out = append(out, model.ProductWithPrices{Product: p, Prices: f.prices[p.ID]})
	}
	return out, nil
}

func (f *fakeCatalog) Prices(_ context.Context, productID string) ([]model.Price, error) {
	if f.err != nil {
		return nil, f.err
	}
	prices, ok := f.prices[productID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return prices, nil
}

func (f *fakeCatalog) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

type fakePayments struct {
	key         string
	keyErr      error
	checkoutErr error
	reqs        []payments.CheckoutRequest
	description string
}

func (f *fakePayments) PublishableKey() (string, error) {
	return f.key, f.keyErr
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (payments.Session, error) {
	f.reqs = append(f.reqs, req)
	if f.checkoutErr != nil {
		return payments.Session{}, f.checkoutErr
	}
	return payments.Session{ID: "cs_1", URL: "https://checkout.stripe.com/c/pay/cs_1"}, nil
}

func (f *fakePayments) FirstLineItemDescription(context.Context, string) (string, error) {
	return f.description, nil
}

type fakeContacts struct {
	saved []model.ContactSubmission
	err   error
	limit int
}

func (f *fakeContacts) Create(_ context.Context, c model.ContactSubmission) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeContacts) List(_ context.Context, limit int) ([]model.ContactSubmission, error) {
	f.limit = limit
	return f.saved, f.err
}

type fakeNotifier struct {
	contacts []model.ContactSubmission
	payments []notify.Payment
}

func (f *fakeNotifier) ContactReceived(c model.ContactSubmission) { f.contacts = append(f.contacts, c) }
func (f *fakeNotifier) PaymentReceived(p notify.Payment) { f.payments = append(f.payments, p) }

type fakeGuard struct {
	seen      map[string]bool
	forgotten []string
}

func (f *fakeGuard) FirstSeen(_ context.Context, id string) (bool, error) {
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

func (f *fakeGuard) Forget(_ context.Context, id string) error {
	delete(f.seen, id)
	f.forgotten = append(f.forgotten, id)
	return nil
}

type testEnv struct {
	mux          *http.ServeMux
	appointments *fakeAppointments
	catalog      *fakeCatalog
	payments     *fakePayments
	contacts     *fakeContacts
	notifier     *fakeNotifier
	guard        *fakeGuard
}

const testWebhookSecret = "whsec_test_secret"

func newTestEnv(t *testing.T, mutate func(*Config)) testEnv {
	t.Helper()
	env := testEnv{
		mux:          http.NewServeMux(),
		appointments: newFakeAppointments(),
		catalog: &fakeCatalog{
			products: []model.Product{{ID: "prod_1", Name: "Notary Service", Active: true}},
			prices: map[string][]model.Price{
				"prod_1": {{ID: "price_1", ProductID: "prod_1", UnitAmount: 1500, Currency: "usd", Active: true}},
			},
		},
		payments: &fakePayments{key: "pk_test_123", description: "Notary Service"},
		contacts: &fakeContacts{},
		notifier: &fakeNotifier{},
		guard:    &fakeGuard{seen: map[string]bool{}},
	}
	cfg := Config{
		StripeWebhookSecret: testWebhookSecret,
		JWTSecret:           "jwt-secret",
		Now:                 func() time.Time { return time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC) },
		NewID:               func() string { return "id-1" },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h := New(Deps{
		Appointments: env.appointments,
		Catalog:      env.catalog,
		Payments:     env.payments,
		Contacts:     env.contacts,
		Notifier:     env.notifier,
		Events:       env.guard,
	}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Register(env.mux, nil)
	return env
}

func (e testEnv) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}
