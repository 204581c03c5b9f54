package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/cardshop-system/internal/middleware"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/service"
)

// ListCardReviews возвращает отзывы на открытку, новые первыми.
func (h *Handler) ListCardReviews(w http.ResponseWriter, r *http.Request) {
	cardID, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	reviews, err := h.service.ListCardReviews(r.Context(), cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "list card reviews error", err, zap.Int64("card_id", cardID))
		return
	}

	resp := make([]reviewResponse, 0, len(reviews))
	for i := range reviews {
		resp = append(resp, toReviewResponse(&reviews[i]))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"reviews": resp})
}

// CreateReview сохраняет отзыв текущего пользователя на открытку.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
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
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rev, err := h.service.CreateReview(r.Context(), user.ID, cardID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReview):
			http.Error(w, "rating must be between 1 and 5", http.StatusBadRequest)
		case errors.Is(err, repository.ErrCardNotFound):
			http.Error(w, "card not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrReviewExists):
			http.Error(w, "card already reviewed", http.StatusConflict)
		default:
			h.serverError(w, "create review error", err, zap.Int64("user_id", user.ID), zap.Int64("card_id", cardID))
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, toReviewResponse(rev))
}

// UpdateReview изменяет отзыв. Чужой отзыв может менять только админ.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid review id", http.StatusBadRequest)
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rev, err := h.service.UpdateReview(r.Context(), reviewID, user, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReview):
			http.Error(w, "rating must be between 1 and 5", http.StatusBadRequest)
		case errors.Is(err, repository.ErrReviewNotFound):
			http.Error(w, "review not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrReviewNotOwned):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		default:
			h.serverError(w, "update review error", err, zap.Int64("review_id", reviewID))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toReviewResponse(rev))
}

// DeleteReview удаляет отзыв. Чужой отзыв может удалять только админ.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid review id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteReview(r.Context(), reviewID, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewNotFound):
			http.Error(w, "review not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrReviewNotOwned):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		default:
			h.serverError(w, "delete review error", err, zap.Int64("review_id", reviewID))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListReviews возвращает страницу всех отзывов для админки.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		page = p
	}
	limit := 20
	if v := q.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if l > 100 {
			l = 100
		}
		limit = l
	}

	reviews, total, err := h.service.ListReviews(r.Context(), page, limit)
	if err != nil {
		h.serverError(w, "list reviews error", err)
		return
	}

	resp := make([]reviewResponse, 0, len(reviews))
	for i := range reviews {
		resp = append(resp, toReviewResponse(&reviews[i]))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"reviews": resp,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
