// Command stripe-webhook-sim posts a signed Stripe event to a running site service.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lbsconnect/examcenter/libs/config"
	"github.com/stripe/stripe-go/v79/webhook"
)

type eventOptions struct {
	AppointmentID string
	Email         string
	Name          string
	Amount        int64
	Currency      string
}

func main() {
	var (
		baseURL     = flag.String("base-url", config.String("BASE_URL", "http://localhost:5000"), "site service base url")
		evtType     = flag.String("type", config.String("STRIPE_EVENT_TYPE", "checkout.session.completed"), "stripe event type")
		appointment = flag.String("appointment-id", config.String("APPOINTMENT_ID", ""), "appointment_id metadata")
		customer    = flag.String("email", config.String("CUSTOMER_EMAIL", "customer@example.com"), "customer email")
		name        = flag.String("name", config.String("CUSTOMER_NAME", "Test Customer"), "customer name")
		amount      = flag.Int64("amount", int64(config.Int("AMOUNT", 1500)), "amount in minor units")
		secret      = flag.String("secret", config.String("STRIPE_WEBHOOK_SECRET", ""), "stripe webhook signing secret (whsec_...)")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		fatal("STRIPE_WEBHOOK_SECRET is required")
	}
	if *evtType == "checkout.session.completed" && strings.TrimSpace(*appointment) == "" {
		fatal("APPOINTMENT_ID is required for checkout.session.completed")
	}

	now := time.Now().UTC()
	eventID := fmt.Sprintf("evt_test_%d", now.UnixNano())

	payload, err := buildEventJSON(eventID, *evtType, now, eventOptions{
		AppointmentID: *appointment,
		Email:         *customer,
		Name:          *name,
		Amount:        *amount,
		Currency:      "usd",
	})
	if err != nil {
		fatal(err.Error())
	}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    *secret,
		Timestamp: now,
		Scheme:    "v1",
	})

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/api/stripe/webhook", bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signed.Header)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	fmt.Printf("event=%s status=%d body=%s\n", eventID, resp.StatusCode, strings.TrimSpace(string(body)))
}

func buildEventJSON(eventID, eventType string, t time.Time, opts eventOptions) ([]byte, error) {
	created := t.Unix()
	switch {
	case eventType == "checkout.session.completed":
		return json.Marshal(map[string]any{
			"id":      eventID,
			"object":  "event",
			"created": created,
			"type":    eventType,
			"data": map[string]any{
				"object": map[string]any{
					"id":             "cs_test_" + eventID,
					"object":         "checkout.session",
					"mode":           "payment",
					"payment_status": "paid",
					"amount_total":   opts.Amount,
					"currency":       opts.Currency,
					"customer_details": map[string]any{
						"email": opts.Email,
						"name":  opts.Name,
					},
					"metadata": map[string]any{
						"appointment_id": opts.AppointmentID,
					},
				},
			},
		})
	case strings.HasPrefix(eventType, "product.") || strings.HasPrefix(eventType, "price."):
		object := strings.SplitN(eventType, ".", 2)[0]
		return json.Marshal(map[string]any{
			"id":      eventID,
			"object":  "event",
			"created": created,
			"type":    eventType,
			"data": map[string]any{
				"object": map[string]any{
					"id":     object + "_test_123",
					"object": object,
				},
			},
		})
	default:
		return nil, fmt.Errorf("unsupported event type: %s", eventType)
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
