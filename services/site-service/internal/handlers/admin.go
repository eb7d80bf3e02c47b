package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lbsconnect/examcenter/libs/auth"
	"github.com/lbsconnect/examcenter/libs/httpx"
	"github.com/lbsconnect/examcenter/services/site-service/internal/booking"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const roleAdmin = "admin"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (h *Handler) adminConfigured() bool {
	return h.cfg.AdminEmail != "" && h.cfg.AdminPasswordHash != "" && h.cfg.JWTSecret != ""
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if !h.adminConfigured() {
		httpx.WriteError(w, http.StatusServiceUnavailable, "admin access not configured")
		return
	}
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email and password required")
		return
	}

	// The hash is always compared so a wrong email costs the same as a wrong password.
	pwErr := verifyPassword(h.cfg.AdminPasswordHash, req.Password)
	if !strings.EqualFold(req.Email, h.cfg.AdminEmail) || pwErr != nil {
		h.logger.Warn("admin login rejected", "email", req.Email)
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	claims := auth.NewClaims(h.cfg.AdminEmail, roleAdmin, h.cfg.AdminTokenTTL)
	token, err := auth.SignHS256(claims, h.cfg.JWTSecret)
	if err != nil {
		h.logger.Error("sign admin token failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.UTC(),
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		claims, err := auth.ParseAndVerifyHS256(token, h.cfg.JWTSecret)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Role != roleAdmin {
			httpx.WriteError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) AdminListAppointments(w http.ResponseWriter, r *http.Request) {
	loc := h.appointments.Policy().Location()
	date := h.cfg.Now().In(loc)
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		d, err := booking.ParseDate(raw, loc)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		date = d
	}
	appts, err := h.appointments.ListDay(r.Context(), date)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to fetch appointments")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse[model.Appointment]{Data: nonNil(appts)})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	appt, err := h.appointments.UpdateStatus(r.Context(), r.PathValue("id"), strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		if errors.Is(err, booking.ErrInvalidStatus) {
			httpx.WriteError(w, http.StatusBadRequest, "status must be confirmed or cancelled")
			return
		}
		h.appointmentError(w, err, "Failed to update appointment")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentResponse{Success: true, Appointment: appt})
}

func (h *Handler) AdminListContacts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	subs, err := h.contacts.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list contact submissions failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to fetch contact submissions")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse[model.ContactSubmission]{Data: nonNil(subs)})
}

// HashPassword produces the bcrypt hash expected in ADMIN_PASSWORD_HASH.
func HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash string, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
