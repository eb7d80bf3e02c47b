package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lbsconnect/examcenter/services/site-service/internal/booking"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const janeBody = `{"customerName":"Jane Doe","customerEmail":"jane@x.com","serviceName":"Notary Service","appointmentDate":"2024-06-10T09:00:00","payNow":false}`

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAvailableSlotsRequiresDate(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/appointments/available-slots", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/appointments/available-slots?date=tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid date", decode(t, rec.Body.Bytes())["error"])
}

func TestAvailableSlotsResponseShape(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodGet, "/api/appointments/available-slots?date=2024-06-10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Date          string                    `json:"date"`
		Slots         []time.Time               `json:"slots"`
		BusinessHours map[string]map[string]any `json:"businessHours"`
		DaysOpen      []string                  `json:"daysOpen"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2024-06-10", got.Date)
	require.Len(t, got.Slots, 2)
	assert.True(t, got.Slots[0].Equal(time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)))
	assert.Contains(t, got.BusinessHours, "monday")
	assert.Contains(t, got.DaysOpen, "Saturday")
}

func TestBookAppointmentCreated(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodPost, "/api/appointments", janeBody, http.Header{"X-Forwarded-Proto": {"https"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec.Body.Bytes())
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])
	assert.NotContains(t, body, "checkoutUrl")
	appt := body["appointment"].(map[string]any)
	assert.Equal(t, "pending", appt["status"])
	assert.Equal(t, "unpaid", appt["paymentStatus"])

	assert.Equal(t, "https://example.com", env.appointments.lastBook.ReturnBaseURL)
}

func TestBookAppointmentReturnsCheckoutURL(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.SiteURL = "https://lbs4.com/" })
	rec := env.do(http.MethodPost, "/api/appointments",
		`{"customerName":"Jane Doe","customerEmail":"jane@x.com","serviceName":"Notary Service","appointmentDate":"2024-06-10T09:00:00","payNow":true,"priceId":"price_1"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec.Body.Bytes())
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", body["checkoutUrl"])
	assert.NotContains(t, body, "message")
	assert.Equal(t, "https://lbs4.com", env.appointments.lastBook.ReturnBaseURL)
}

func TestBookAppointmentErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", validation.Field("customerEmail", "must be a valid email address"), http.StatusBadRequest, "Invalid appointment data"},
		{"outside hours", booking.ErrOutsideBusinessHours, http.StatusUnprocessableEntity, "Appointments are only available Monday-Saturday, within business hours."},
		{"conflict", model.ErrSlotTaken, http.StatusConflict, slotTakenMessage},
		{"unexpected", errors.New("connection refused"), http.StatusInternalServerError, "Failed to book appointment"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.appointments.bookErr = tc.err

			rec := env.do(http.MethodPost, "/api/appointments", janeBody, nil)
			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec.Body.Bytes())
			assert.Equal(t, tc.msg, body["error"])
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestBookAppointmentValidationDetails(t *testing.T) {
	env := newTestEnv(t, nil)
	env.appointments.bookErr = validation.Field("customerEmail", "must be a valid email address")

	rec := env.do(http.MethodPost, "/api/appointments", janeBody, nil)
	body := decode(t, rec.Body.Bytes())
	details := body["details"].(map[string]any)
	assert.Equal(t, "must be a valid email address", details["customerEmail"])
}

func TestBookAppointmentRejectsBadJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodPost, "/api/appointments", `{"customerName":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAppointment(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodPost, "/api/appointments", janeBody, nil)

	rec := env.do(http.MethodGet, "/api/appointments/appt-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	appt := decode(t, rec.Body.Bytes())["appointment"].(map[string]any)
	assert.Equal(t, "appt-1", appt["id"])

	rec = env.do(http.MethodGet, "/api/appointments/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Appointment not found", decode(t, rec.Body.Bytes())["error"])
}

func TestPaymentComplete(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodPost, "/api/appointments", janeBody, nil)

	rec := env.do(http.MethodPost, "/api/appointments/appt-1/payment-complete", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec.Body.Bytes())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "paid", body["appointment"].(map[string]any)["paymentStatus"])

	rec = env.do(http.MethodPost, "/api/appointments/missing/payment-complete", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
