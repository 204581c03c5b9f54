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
)

// GetCart возвращает корзину текущего пользователя с актуальными ценами.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	cart, err := h.service.GetCart(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, "get cart error", err, zap.Int64("user_id", user.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// AddCartItem добавляет открытку в корзину, увеличивая количество при повторе.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req struct {
		CardID   int64 `json:"card_id"`
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.CardID <= 0 || req.Quantity < 1 {
		http.Error(w, "card_id and positive quantity are required", http.StatusBadRequest)
		return
	}

	cart, err := h.service.AddCartItem(r.Context(), user.ID, req.CardID, req.Quantity)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "add cart item error", err, zap.Int64("user_id", user.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// UpdateCartItem выставляет точное количество позиции корзины.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	cardID, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity < 1 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	cart, err := h.service.SetCartItemQuantity(r.Context(), user.ID, cardID, req.Quantity)
	if err != nil {
		if errors.Is(err, repository.ErrCartLineNotFound) {
			http.Error(w, "cart item not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "update cart item error", err, zap.Int64("user_id", user.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// RemoveCartItem удаляет позицию из корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	cardID, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	cart, err := h.service.RemoveCartItem(r.Context(), user.ID, cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCartLineNotFound) {
			http.Error(w, "cart item not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "remove cart item error", err, zap.Int64("user_id", user.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// ClearCart опустошает корзину пользователя.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.ClearCart(r.Context(), user.ID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		h.serverError(w, "clear cart error", err, zap.Int64("user_id", user.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, toCartResponse(&model.Cart{UserID: user.ID}))
}
