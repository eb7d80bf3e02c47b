package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lbsconnect/examcenter/libs/httpx"
	"github.com/lbsconnect/examcenter/services/site-service/internal/booking"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/validation"
)

const slotTakenMessage = "This time slot is no longer available. Please choose another time."

type bookResponse struct {
	Success bool `json:"success"`
	booking.Result
}

type appointmentResponse struct {
	Success     bool              `json:"success,omitempty"`
	Appointment model.Appointment `json:"appointment"`
}

func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := booking.ParseDate(raw, h.appointments.Policy().Location())
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.appointments.AvailableSlots(r.Context(), date))
}

func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ReturnBaseURL = h.baseURL(r)

	res, err := h.appointments.Book(r.Context(), req)
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			httpx.WriteErrorDetails(w, http.StatusBadRequest, "Invalid appointment data", verr.Fields)
		case errors.Is(err, booking.ErrOutsideBusinessHours):
			httpx.WriteError(w, http.StatusUnprocessableEntity, "Appointments are only available Monday-Saturday, within business hours.")
		case errors.Is(err, model.ErrSlotTaken):
			httpx.WriteError(w, http.StatusConflict, slotTakenMessage)
		default:
			h.logger.Error("book appointment failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Failed to book appointment")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, bookResponse{Success: true, Result: res})
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.appointments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.appointmentError(w, err, "Failed to fetch appointment")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentResponse{Appointment: appt})
}

func (h *Handler) PaymentComplete(w http.ResponseWriter, r *http.Request) {
	appt, err := h.appointments.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		h.appointmentError(w, err, "Failed to update payment status")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentResponse{Success: true, Appointment: appt})
}

func (h *Handler) appointmentError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, model.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "Appointment not found")
		return
	}
	h.logger.Error(strings.ToLower(msg), "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, msg)
}
