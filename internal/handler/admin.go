package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
)

type cardRequest struct {
	Name                  string               `json:"name"`
	Category              string               `json:"category"`
	Description           string               `json:"description"`
	Price                 float64              `json:"price"`
	Discount              float64              `json:"discount"`
	WholesalePrice        float64              `json:"wholesale_price"`
	AvailableForWholesale bool                 `json:"available_for_wholesale"`
	Stock                 int64                `json:"stock"`
	Popular               bool                 `json:"is_popular"`
	Trending              bool                 `json:"is_trending"`
	PrimaryImage          string               `json:"primary_image"`
	SecondaryImage        string               `json:"secondary_image"`
	Specifications        model.Specifications `json:"specifications"`
}

func (req *cardRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if !model.ValidCategory(model.CardCategory(req.Category)) {
		return "unknown category"
	}
	if req.Price <= 0 {
		return "price must be positive"
	}
	if req.Discount < 0 || req.WholesalePrice < 0 || req.Stock < 0 {
		return "amounts must not be negative"
	}
	if req.PrimaryImage == "" {
		return "primary image is required"
	}
	return ""
}

func (req *cardRequest) toModel() *model.Card {
	return &model.Card{
		Name:                  req.Name,
		Category:              model.CardCategory(req.Category),
		Description:           req.Description,
		Price:                 paise(req.Price),
		Discount:              paise(req.Discount),
		WholesalePrice:        paise(req.WholesalePrice),
		AvailableForWholesale: req.AvailableForWholesale,
		Stock:                 req.Stock,
		Popular:               req.Popular,
		Trending:              req.Trending,
		PrimaryImage:          req.PrimaryImage,
		SecondaryImage:        req.SecondaryImage,
		Specifications:        req.Specifications,
	}
}

// CreateCard добавляет новую открытку в каталог.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	card, err := h.service.CreateCard(r.Context(), req.toModel())
	if err != nil {
		h.serverError(w, "create card error", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toCardResponse(card))
}

// UpdateCard заменяет данные открытки каталога целиком.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	card := req.toModel()
	card.ID = id
	updated, err := h.service.UpdateCard(r.Context(), card)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "update card error", err, zap.Int64("card_id", id))
		return
	}

	h.writeJSON(w, http.StatusOK, toCardResponse(updated))
}

// UpdateCardRating выставляет рейтинг и число отзывов открытки.
func (h *Handler) UpdateCardRating(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	var req struct {
		Rating       float64 `json:"rating"`
		ReviewsCount int64   `json:"reviews_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rating < 0 || req.Rating > 5 || req.ReviewsCount < 0 {
		http.Error(w, "rating must be between 0 and 5", http.StatusBadRequest)
		return
	}

	card, err := h.service.UpdateCardRating(r.Context(), id, req.Rating, req.ReviewsCount)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "update card rating error", err, zap.Int64("card_id", id))
		return
	}

	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// DeleteCard удаляет открытку из каталога.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteCard(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "delete card error", err, zap.Int64("card_id", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListOrders возвращает все заказы магазина, новые первыми.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.serverError(w, "list orders error", err)
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	h.writeJSON(w, http.StatusOK, items)
}

// UpdateOrderStatus переводит заказ в следующий статус с записью в журнал.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), orderID, model.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrInvalidTransition):
			http.Error(w, "status transition not allowed", http.StatusConflict)
		default:
			h.serverError(w, "update order status error", err, zap.Int64("order_id", orderID))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdatePaymentStatus выставляет состояние оплаты заказа.
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		PaymentStatus string `json:"payment_status"`
		TransactionID string `json:"transaction_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !model.ValidPaymentStatus(model.PaymentStatus(req.PaymentStatus)) {
		http.Error(w, "unknown payment status", http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdatePaymentStatus(r.Context(), orderID, model.PaymentStatus(req.PaymentStatus), req.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "update payment status error", err, zap.Int64("order_id", orderID))
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// AttachTracking привязывает к заказу службу доставки и трек-номер.
func (h *Handler) AttachTracking(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		DeliveryPartner string `json:"delivery_partner"`
		TrackingID      string `json:"tracking_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DeliveryPartner == "" || req.TrackingID == "" {
		http.Error(w, "delivery_partner and tracking_id are required", http.StatusBadRequest)
		return
	}

	order, err := h.service.AttachTracking(r.Context(), orderID, req.DeliveryPartner, req.TrackingID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "attach tracking error", err, zap.Int64("order_id", orderID))
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// DeleteOrder удаляет заказ вместе с позициями и журналом статусов.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "delete order error", err, zap.Int64("order_id", orderID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUsers возвращает страницу пользователей по фильтру.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.UserFilter{
		Search: q.Get("search"),
		Page:   1,
		Limit:  20,
	}
	if v := q.Get("role"); v != "" {
		f.Role = model.Role(v)
	}
	if v := q.Get("wholesaler_status"); v != "" {
		f.WholesalerStatus = model.WholesalerStatus(v)
	}
	if v := q.Get("banned"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid banned", http.StatusBadRequest)
			return
		}
		f.Banned = &b
	}
	if v := q.Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		f.Page = p
	}
	if v := q.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > 100 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		f.Limit = l
	}

	users, total, err := h.service.ListUsers(r.Context(), f)
	if err != nil {
		h.serverError(w, "list users error", err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"users": items,
		"total": total,
		"page":  f.Page,
		"limit": f.Limit,
	})
}

// SetUserBanned блокирует либо разблокирует пользователя.
func (h *Handler) SetUserBanned(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var req struct {
		Banned bool `json:"is_banned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetUserBanned(r.Context(), id, req.Banned); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "set user banned error", err, zap.Int64("user_id", id))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"is_banned": req.Banned})
}

// DeleteUser удаляет учётную запись пользователя.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "delete user error", err, zap.Int64("user_id", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListApplications возвращает заявки на оптовый доступ, опционально по статусу.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	var status model.WholesalerStatus
	if v := r.URL.Query().Get("status"); v != "" {
		status = model.WholesalerStatus(v)
		switch status {
		case model.WholesalerStatusPending, model.WholesalerStatusApproved, model.WholesalerStatusDeclined:
		default:
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
	}

	apps, err := h.service.ListApplications(r.Context(), status)
	if err != nil {
		h.serverError(w, "list applications error", err)
		return
	}

	items := make([]applicationResponse, 0, len(apps))
	for i := range apps {
		items = append(items, toApplicationResponse(&apps[i]))
	}
	h.writeJSON(w, http.StatusOK, items)
}

// ReviewApplication одобряет либо отклоняет заявку на оптовый доступ.
func (h *Handler) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	appID, err := strconv.ParseInt(chi.URLParam(r, "appID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid application id", http.StatusBadRequest)
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	app, err := h.service.ReviewApplication(r.Context(), appID, req.Approve)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			http.Error(w, "pending application not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "review application error", err, zap.Int64("application_id", appID))
		return
	}

	h.writeJSON(w, http.StatusOK, toApplicationResponse(app))
}
