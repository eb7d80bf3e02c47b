package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lbsconnect/examcenter/libs/httpx"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/validation"
)

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Phone   string `json:"phone" validate:"omitempty,max=40"`
	Service string `json:"service" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Service = strings.TrimSpace(req.Service)
	req.Message = strings.TrimSpace(req.Message)

	if err := validation.Struct(req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			httpx.WriteErrorDetails(w, http.StatusBadRequest, "Invalid form data", verr.Fields)
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	sub := model.ContactSubmission{
		ID:        h.cfg.NewID(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Service:   req.Service,
		Message:   req.Message,
		CreatedAt: h.cfg.Now().UTC(),
	}
	if err := h.contacts.Create(r.Context(), sub); err != nil {
		h.logger.Error("save contact submission failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to process contact form")
		return
	}
	h.logger.Info("contact submission saved", "contact_id", sub.ID)
	h.notifier.ContactReceived(sub)

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Message received"})
}
