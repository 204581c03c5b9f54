package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/cardshop-system/internal/middleware"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/service"
	"github.com/mmeshcher/cardshop-system/internal/validation"
)

// ApplyWholesaler принимает заявку на оптовый доступ.
func (h *Handler) ApplyWholesaler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req struct {
		Email           string `json:"email"`
		BusinessName    string `json:"business_name"`
		OwnerName       string `json:"owner_name"`
		GSTNumber       string `json:"gst_number"`
		BusinessAddress string `json:"business_address"`
		ContactNumber   string `json:"contact_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.BusinessName == "" || req.OwnerName == "" || req.GSTNumber == "" || req.BusinessAddress == "" {
		http.Error(w, "all business fields are required", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		req.Email = user.Email
	}
	if !validation.IsValidEmail(req.Email) {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}
	if !validation.IsValidPhone(req.ContactNumber) {
		http.Error(w, "invalid contact number", http.StatusBadRequest)
		return
	}

	app, err := h.service.ApplyWholesaler(r.Context(), user.ID, service.ApplicationInput{
		Email:           req.Email,
		BusinessName:    req.BusinessName,
		OwnerName:       req.OwnerName,
		GSTNumber:       req.GSTNumber,
		BusinessAddress: req.BusinessAddress,
		ContactNumber:   req.ContactNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationPending):
			http.Error(w, "application already pending", http.StatusConflict)
		case errors.Is(err, service.ErrReapplyCooldown):
			http.Error(w, "reapplication is allowed three days after a decline", http.StatusConflict)
		default:
			h.serverError(w, "apply wholesaler error", err, zap.Int64("user_id", user.ID))
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// GetOwnApplication возвращает последнюю заявку текущего пользователя.
func (h *Handler) GetOwnApplication(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	app, err := h.service.GetOwnApplication(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			http.Error(w, "application not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "get application error", err, zap.Int64("user_id", user.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, toApplicationResponse(app))
}
