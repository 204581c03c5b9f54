package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/cardshop-system/internal/middleware"
	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/service"
	"github.com/mmeshcher/cardshop-system/internal/validation"
)

// PlaceOrder оформляет заказ из корзины текущего пользователя.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req struct {
		Discount        float64               `json:"discount"`
		Tax             float64               `json:"tax"`
		ShippingFee     float64               `json:"shipping_fee"`
		PaymentMethod   string                `json:"payment_method"`
		ShippingAddress model.ShippingAddress `json:"shipping_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	method := model.PaymentMethod(req.PaymentMethod)
	if !model.ValidPaymentMethod(method) {
		http.Error(w, "unknown payment method", http.StatusBadRequest)
		return
	}
	addr := req.ShippingAddress
	if addr.Name == "" || addr.State == "" || addr.City == "" || addr.Street == "" {
		http.Error(w, "shipping address is incomplete", http.StatusBadRequest)
		return
	}
	if !validation.IsValidPhone(addr.Phone) {
		http.Error(w, "invalid shipping phone", http.StatusBadRequest)
		return
	}
	if !validation.IsValidPincode(addr.Pincode) {
		http.Error(w, "invalid pincode", http.StatusBadRequest)
		return
	}
	if req.Discount < 0 || req.Tax < 0 || req.ShippingFee < 0 {
		http.Error(w, "amounts must not be negative", http.StatusBadRequest)
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), user.ID, service.PlaceOrderInput{
		Discount:        paise(req.Discount),
		Tax:             paise(req.Tax),
		ShippingFee:     paise(req.ShippingFee),
		PaymentMethod:   method,
		ShippingAddress: addr,
	})
	if err != nil {
		if errors.Is(err, service.ErrCartEmpty) {
			http.Error(w, "cart is empty", http.StatusBadRequest)
			return
		}
		h.serverError(w, "place order error", err, zap.Int64("user_id", user.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// GetOrders возвращает заказы текущего пользователя, новые первыми.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orders, err := h.service.GetUserOrders(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, "get orders error", err, zap.Int64("user_id", user.ID))
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	h.writeJSON(w, http.StatusOK, items)
}

// GetOrder возвращает один заказ. Чужой заказ доступен только администратору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrOrderNotOwned):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		default:
			h.serverError(w, "get order error", err, zap.Int64("order_id", orderID))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// CancelOrder отменяет заказ текущего пользователя, пока тот ещё pending.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := h.service.CancelOrder(r.Context(), orderID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrOrderNotOwned):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		case errors.Is(err, repository.ErrOrderNotPending):
			http.Error(w, "only pending orders can be cancelled", http.StatusBadRequest)
		default:
			h.serverError(w, "cancel order error", err, zap.Int64("order_id", orderID))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}
