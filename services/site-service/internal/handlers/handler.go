// Package handlers exposes the site HTTP API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lbsconnect/examcenter/libs/httpx"
	"github.com/lbsconnect/examcenter/services/site-service/internal/booking"
	"github.com/lbsconnect/examcenter/services/site-service/internal/hours"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/notify"
	"github.com/lbsconnect/examcenter/services/site-service/internal/payments"
)

type Appointments interface {
	AvailableSlots(ctx context.Context, date time.Time) booking.Availability
	Book(ctx context.Context, req booking.Request) (booking.Result, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	MarkPaid(ctx context.Context, id string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) (model.Appointment, error)
	ListDay(ctx context.Context, date time.Time) ([]model.Appointment, error)
	Policy() hours.Policy
}

type Catalog interface {
	Products(ctx context.Context) ([]model.Product, error)
	ProductsWithPrices(ctx context.Context) ([]model.ProductWithPrices, error)
	Prices(ctx context.Context, productID string) ([]model.Price, error)
	Invalidate(ctx context.Context) error
}

type Payments interface {
	PublishableKey() (string, error)
	CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (payments.Session, error)
	FirstLineItemDescription(ctx context.Context, sessionID string) (string, error)
}

type Contacts interface {
	Create(ctx context.Context, c model.ContactSubmission) error
	List(ctx context.Context, limit int) ([]model.ContactSubmission, error)
}

type Notifier interface {
	ContactReceived(c model.ContactSubmission)
	PaymentReceived(p notify.Payment)
}

// EventGuard deduplicates webhook deliveries.
type EventGuard interface {
	FirstSeen(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

type Deps struct {
	Appointments Appointments
	Catalog      Catalog
	Payments     Payments
	Contacts     Contacts
	Notifier     Notifier
	Events       EventGuard
}

type Config struct {
	// SiteURL overrides the request host when building Stripe return URLs.
	SiteURL string

	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration

	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         string
	AdminTokenTTL     time.Duration

	Now   func() time.Time
	NewID func() string
}

type Handler struct {
	appointments Appointments
	catalog      Catalog
	payments     Payments
	contacts     Contacts
	notifier     Notifier
	events       EventGuard
	cfg          Config
	logger       *slog.Logger
}

func New(deps Deps, cfg Config, logger *slog.Logger) *Handler {
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	cfg.StripeWebhookSecret = strings.TrimSpace(cfg.StripeWebhookSecret)
	if cfg.StripeWebhookTolerance <= 0 {
		cfg.StripeWebhookTolerance = 300 * time.Second
	}
	if cfg.AdminTokenTTL <= 0 {
		cfg.AdminTokenTTL = 12 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Handler{
		appointments: deps.Appointments,
		catalog:      deps.Catalog,
		payments:     deps.Payments,
		contacts:     deps.Contacts,
		notifier:     deps.Notifier,
		events:       deps.Events,
		cfg:          cfg,
		logger:       logger,
	}
}

// Register mounts every route on mux. formLimit, when set, wraps the public
// POST endpoints.
func (h *Handler) Register(mux *http.ServeMux, formLimit httpx.Middleware) {
	limited := func(fn http.HandlerFunc) http.Handler {
		if formLimit == nil {
			return fn
		}
		return formLimit(fn)
	}

	mux.HandleFunc("GET /api/appointments/available-slots", h.AvailableSlots)
	mux.Handle("POST /api/appointments", limited(h.BookAppointment))
	mux.HandleFunc("GET /api/appointments/{id}", h.GetAppointment)
	mux.HandleFunc("POST /api/appointments/{id}/payment-complete", h.PaymentComplete)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products-with-prices", h.ListProductsWithPrices)
	mux.HandleFunc("GET /api/products/{productId}/prices", h.ListPrices)
	mux.HandleFunc("GET /api/stripe/publishable-key", h.PublishableKey)
	mux.Handle("POST /api/checkout", limited(h.Checkout))
	mux.HandleFunc("POST /api/stripe/webhook", h.StripeWebhook)

	mux.Handle("POST /api/contact", limited(h.Contact))

	mux.Handle("POST /api/admin/login", limited(h.AdminLogin))
	mux.Handle("GET /api/admin/appointments", h.requireAdmin(http.HandlerFunc(h.AdminListAppointments)))
	mux.Handle("POST /api/admin/appointments/{id}/status", h.requireAdmin(http.HandlerFunc(h.AdminUpdateStatus)))
	mux.Handle("GET /api/admin/contacts", h.requireAdmin(http.HandlerFunc(h.AdminListContacts)))
}

// baseURL is the scheme and host Stripe should send the customer back to.
func (h *Handler) baseURL(r *http.Request) string {
	if h.cfg.SiteURL != "" {
		return h.cfg.SiteURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Host"), ",")[0]); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
