package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lbsconnect/examcenter/libs/httpx"
	"github.com/lbsconnect/examcenter/services/site-service/internal/metrics"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/notify"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const maxWebhookBody = 1 << 20

// StripeWebhook handles Stripe events. The signature is the only authentication.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.cfg.StripeWebhookSecret == "" {
		httpx.WriteError(w, http.StatusServiceUnavailable, "stripe webhook not configured")
		return
	}
	sigHeader := strings.TrimSpace(r.Header.Get("Stripe-Signature"))
	if sigHeader == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Missing stripe-signature")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	evt, err := webhook.ConstructEventWithOptions(body, sigHeader, h.cfg.StripeWebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                h.cfg.StripeWebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		metrics.IncWebhook("unknown", "invalid_signature")
		h.logger.Warn("stripe webhook rejected", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, "invalid signature")
		return
	}
	evtType := string(evt.Type)
	h.logger.Info("stripe event received",
		"event_id", evt.ID,
		"event_type", evtType,
		"occurred_at", time.Unix(evt.Created, 0).UTC().Format(time.RFC3339),
	)

	if h.events != nil {
		first, err := h.events.FirstSeen(r.Context(), evt.ID)
		if err != nil {
			h.logger.Warn("stripe event dedupe unavailable", "event_id", evt.ID, "err", err)
			first = true
		}
		if !first {
			metrics.IncWebhook(evtType, "duplicate")
			h.logger.Info("stripe event duplicate ignored", "event_id", evt.ID, "event_type", evtType)
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"received": true, "duplicate": true})
			return
		}
	}

	switch {
	case evt.Type == "checkout.session.completed":
		if err := h.checkoutCompleted(r, evt); err != nil {
			if h.events != nil {
				if ferr := h.events.Forget(r.Context(), evt.ID); ferr != nil {
					h.logger.Warn("release stripe event failed", "event_id", evt.ID, "err", ferr)
				}
			}
			metrics.IncWebhook(evtType, "error")
			h.logger.Error("stripe checkout completion failed", "event_id", evt.ID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Webhook processing error")
			return
		}
	case strings.HasPrefix(evtType, "product.") || strings.HasPrefix(evtType, "price."):
		if h.catalog != nil {
			if err := h.catalog.Invalidate(r.Context()); err != nil {
				h.logger.Warn("catalog cache invalidation failed", "event_type", evtType, "err", err)
			}
		}
	default:
		metrics.IncWebhook(evtType, "ignored")
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	metrics.IncWebhook(evtType, "ok")
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *Handler) checkoutCompleted(r *http.Request, evt stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		// A malformed payload will not improve on retry.
		h.logger.Error("stripe: invalid checkout session payload", "event_id", evt.ID, "err", err)
		return nil
	}

	appointmentID := strings.TrimSpace(session.Metadata["appointment_id"])
	if appointmentID != "" {
		_, err := h.appointments.MarkPaid(r.Context(), appointmentID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			h.logger.Warn("stripe: checkout for unknown appointment", "appointment_id", appointmentID, "session_id", session.ID)
		case err != nil:
			return err
		}
	}

	payment := notify.Payment{
		SessionID:     session.ID,
		AppointmentID: appointmentID,
		Amount:        session.AmountTotal,
		Currency:      string(session.Currency),
	}
	if payment.Currency == "" {
		payment.Currency = "usd"
	}
	if session.CustomerDetails != nil {
		payment.CustomerEmail = session.CustomerDetails.Email
		payment.CustomerName = session.CustomerDetails.Name
	}
	if h.payments != nil {
		desc, err := h.payments.FirstLineItemDescription(r.Context(), session.ID)
		if err != nil {
			h.logger.Warn("stripe: line items unavailable", "session_id", session.ID, "err", err)
		}
		payment.ProductName = desc
	}
	h.notifier.PaymentReceived(payment)
	return nil
}
