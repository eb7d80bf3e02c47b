package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lbsconnect/examcenter/libs/httpx"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/payments"
)

type listResponse[T any] struct {
	Data []T `json:"data"`
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		h.logger.Error("list products failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse[model.Product]{Data: nonNil(products)})
}

func (h *Handler) ListProductsWithPrices(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ProductsWithPrices(r.Context())
	if err != nil {
		h.logger.Error("list products with prices failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse[model.ProductWithPrices]{Data: nonNil(products)})
}

func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.catalog.Prices(r.Context(), r.PathValue("productId"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("list prices failed", "product_id", r.PathValue("productId"), "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to fetch prices")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse[model.Price]{Data: nonNil(prices)})
}

func (h *Handler) PublishableKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.payments.PublishableKey()
	if err != nil {
		h.logger.Error("publishable key unavailable", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to fetch Stripe key")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"publishableKey": key})
}

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.PriceID = strings.TrimSpace(req.PriceID)
	if req.PriceID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "priceId is required")
		return
	}

	base := h.baseURL(r)
	sess, err := h.payments.CreateCheckoutSession(r.Context(), payments.CheckoutRequest{
		PriceID:    req.PriceID,
		SuccessURL: base + "/checkout/success",
		CancelURL:  base + "/checkout/cancel",
	})
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			httpx.WriteError(w, http.StatusServiceUnavailable, "Payments are not configured")
			return
		}
		h.logger.Error("create checkout session failed", "price_id", req.PriceID, "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "Failed to create checkout session")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"url": sess.URL})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
