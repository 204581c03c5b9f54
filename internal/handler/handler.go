// Package handler содержит HTTP-обработчики API магазина открыток.
package handler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/cardshop-system/internal/middleware"
	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, name, email, phone, password string) (*model.User, error)
	AuthenticateUser(ctx context.Context, emailOrPhone, password string) (*model.User, string, string, error)
	AuthenticateWithOTP(ctx context.Context, email, code string) (*model.User, string, string, error)
	Logout(ctx context.Context, userID int64) error
	RefreshTokens(ctx context.Context, refreshToken string) (*model.User, string, string, error)
	UpdateProfile(ctx context.Context, userID int64, upd service.ProfileUpdate) (*model.User, error)
	SendOTP(ctx context.Context, email string) error
	CheckOTP(ctx context.Context, email, code string) (bool, error)

	ListCards(ctx context.Context, f repository.CardFilter) ([]model.Card, int64, error)
	GetCard(ctx context.Context, id int64) (*model.Card, error)
	CreateCard(ctx context.Context, c *model.Card) (*model.Card, error)
	UpdateCard(ctx context.Context, c *model.Card) (*model.Card, error)
	UpdateCardRating(ctx context.Context, id int64, rating float64, reviewsCount int64) (*model.Card, error)
	DeleteCard(ctx context.Context, id int64) error

	AddCartItem(ctx context.Context, userID, cardID, quantity int64) (*model.Cart, error)
	RemoveCartItem(ctx context.Context, userID, cardID int64) (*model.Cart, error)
	SetCartItemQuantity(ctx context.Context, userID, cardID, quantity int64) (*model.Cart, error)
	GetCart(ctx context.Context, userID int64) (*model.Cart, error)
	ClearCart(ctx context.Context, userID int64) error

	PlaceOrder(ctx context.Context, userID int64, in service.PlaceOrderInput) (*model.Order, error)
	GetUserOrders(ctx context.Context, userID int64) ([]model.Order, error)
	GetOrder(ctx context.Context, orderID int64, requester *model.User) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID, userID int64) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, to model.OrderStatus) (*model.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus, transactionID string) (*model.Order, error)
	AttachTracking(ctx context.Context, orderID int64, deliveryPartner, trackingID string) (*model.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error

	CreateReview(ctx context.Context, userID, cardID int64, rating int, comment string) (*model.Review, error)
	UpdateReview(ctx context.Context, reviewID int64, requester *model.User, rating int, comment string) (*model.Review, error)
	DeleteReview(ctx context.Context, reviewID int64, requester *model.User) error
	ListCardReviews(ctx context.Context, cardID int64) ([]model.Review, error)
	ListReviews(ctx context.Context, page, limit int) ([]model.Review, int64, error)

	ApplyWholesaler(ctx context.Context, userID int64, in service.ApplicationInput) (*model.WholesalerApplication, error)
	GetOwnApplication(ctx context.Context, userID int64) (*model.WholesalerApplication, error)
	ListApplications(ctx context.Context, status model.WholesalerStatus) ([]model.WholesalerApplication, error)
	ReviewApplication(ctx context.Context, appID int64, approve bool) (*model.WholesalerApplication, error)

	ListUsers(ctx context.Context, f repository.UserFilter) ([]model.User, int64, error)
	SetUserBanned(ctx context.Context, id int64, banned bool) error
	DeleteUser(ctx context.Context, id int64) error
}

// Handler реализует HTTP-обработчики API магазина открыток.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

// rupees переводит пайсы в рупии для JSON-ответа.
func rupees(p int64) float64 {
	return float64(p) / 100
}

// paise переводит рупии из запроса во внутреннее представление.
func paise(v float64) int64 {
	return int64(math.Round(v * 100))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	h.logger.Error(msg, append(fields, zap.Error(err))...)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

type userResponse struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	Roles            []string `json:"roles"`
	WholesalerStatus string   `json:"wholesaler_status"`
	Banned           bool     `json:"is_banned"`
	CreatedAt        string   `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return userResponse{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Phone:            u.Phone,
		Roles:            roles,
		WholesalerStatus: string(u.WholesalerStatus),
		Banned:           u.Banned,
		CreatedAt:        u.CreatedAt.Format(time.RFC3339),
	}
}

type cardResponse struct {
	ID                    int64                `json:"id"`
	Name                  string               `json:"name"`
	Category              string               `json:"category"`
	Description           string               `json:"description"`
	Price                 float64              `json:"price"`
	Discount              float64              `json:"discount"`
	WholesalePrice        float64              `json:"wholesale_price"`
	AvailableForWholesale bool                 `json:"available_for_wholesale"`
	Stock                 int64                `json:"stock"`
	Rating                float64              `json:"rating"`
	ReviewsCount          int64                `json:"reviews_count"`
	Popular               bool                 `json:"is_popular"`
	Trending              bool                 `json:"is_trending"`
	PrimaryImage          string               `json:"primary_image"`
	SecondaryImage        string               `json:"secondary_image,omitempty"`
	Specifications        model.Specifications `json:"specifications"`
	CreatedAt             string               `json:"created_at"`
}

func toCardResponse(c *model.Card) cardResponse {
	return cardResponse{
		ID:                    c.ID,
		Name:                  c.Name,
		Category:              string(c.Category),
		Description:           c.Description,
		Price:                 rupees(c.Price),
		Discount:              rupees(c.Discount),
		WholesalePrice:        rupees(c.WholesalePrice),
		AvailableForWholesale: c.AvailableForWholesale,
		Stock:                 c.Stock,
		Rating:                c.Rating,
		ReviewsCount:          c.ReviewsCount,
		Popular:               c.Popular,
		Trending:              c.Trending,
		PrimaryImage:          c.PrimaryImage,
		SecondaryImage:        c.SecondaryImage,
		Specifications:        c.Specifications,
		CreatedAt:             c.CreatedAt.Format(time.RFC3339),
	}
}

type cartLineResponse struct {
	CardID   int64   `json:"card_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Image    string  `json:"image"`
	Quantity int64   `json:"quantity"`
}

type cartResponse struct {
	Lines    []cartLineResponse `json:"lines"`
	Total    float64            `json:"total"`
	Discount float64            `json:"discount"`
}

func toCartResponse(c *model.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, cartLineResponse{
			CardID:   l.CardID,
			Name:     l.Name,
			Price:    rupees(l.Price),
			Discount: rupees(l.Discount),
			Image:    l.Image,
			Quantity: l.Quantity,
		})
	}
	return cartResponse{
		Lines:    lines,
		Total:    rupees(c.Total()),
		Discount: rupees(c.TotalDiscount()),
	}
}

type orderItemResponse struct {
	CardID   int64   `json:"card_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Quantity int64   `json:"quantity"`
	Image    string  `json:"image,omitempty"`
}

type statusChangeResponse struct {
	Status    string `json:"status"`
	ChangedAt string `json:"changed_at"`
}

type orderResponse struct {
	ID              int64                  `json:"id"`
	UID             string                 `json:"order_uid"`
	Status          string                 `json:"status"`
	Items           []orderItemResponse    `json:"items"`
	TotalAmount     float64                `json:"total_amount"`
	Discount        float64                `json:"discount"`
	Tax             float64                `json:"tax"`
	ShippingFee     float64                `json:"shipping_fee"`
	FinalAmount     float64                `json:"final_amount"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentStatus   string                 `json:"payment_status"`
	TransactionID   string                 `json:"transaction_id,omitempty"`
	ShippingAddress model.ShippingAddress  `json:"shipping_address"`
	DeliveryPartner string                 `json:"delivery_partner,omitempty"`
	TrackingID      string                 `json:"tracking_id,omitempty"`
	StatusHistory   []statusChangeResponse `json:"status_history"`
	PlacedAt        string                 `json:"placed_at"`
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			CardID:   it.CardID,
			Name:     it.Name,
			Category: string(it.Category),
			Price:    rupees(it.Price),
			Discount: rupees(it.Discount),
			Quantity: it.Quantity,
			Image:    it.Image,
		})
	}

	history := make([]statusChangeResponse, 0, len(o.StatusHistory))
	for _, ch := range o.StatusHistory {
		history = append(history, statusChangeResponse{
			Status:    string(ch.Status),
			ChangedAt: ch.ChangedAt.Format(time.RFC3339),
		})
	}

	return orderResponse{
		ID:              o.ID,
		UID:             o.UID,
		Status:          string(o.Status),
		Items:           items,
		TotalAmount:     rupees(o.TotalAmount),
		Discount:        rupees(o.Discount),
		Tax:             rupees(o.Tax),
		ShippingFee:     rupees(o.ShippingFee),
		FinalAmount:     rupees(o.FinalAmount),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		TransactionID:   o.TransactionID,
		ShippingAddress: o.ShippingAddress,
		DeliveryPartner: o.DeliveryPartner,
		TrackingID:      o.TrackingID,
		StatusHistory:   history,
		PlacedAt:        o.PlacedAt.Format(time.RFC3339),
	}
}

type reviewResponse struct {
	ID        int64  `json:"id"`
	CardID    int64  `json:"card_id"`
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toReviewResponse(rev *model.Review) reviewResponse {
	return reviewResponse{
		ID:        rev.ID,
		CardID:    rev.CardID,
		UserID:    rev.UserID,
		UserName:  rev.UserName,
		Rating:    rev.Rating,
		Comment:   rev.Comment,
		CreatedAt: rev.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rev.UpdatedAt.Format(time.RFC3339),
	}
}

type applicationResponse struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	Email           string `json:"email"`
	BusinessName    string `json:"business_name"`
	OwnerName       string `json:"owner_name"`
	GSTNumber       string `json:"gst_number"`
	BusinessAddress string `json:"business_address"`
	ContactNumber   string `json:"contact_number"`
	Status          string `json:"status"`
	AppliedAt       string `json:"applied_at"`
	ReviewedAt      string `json:"reviewed_at,omitempty"`
}

func toApplicationResponse(a *model.WholesalerApplication) applicationResponse {
	resp := applicationResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		Email:           a.Email,
		BusinessName:    a.BusinessName,
		OwnerName:       a.OwnerName,
		GSTNumber:       a.GSTNumber,
		BusinessAddress: a.BusinessAddress,
		ContactNumber:   a.ContactNumber,
		Status:          string(a.Status),
		AppliedAt:       a.AppliedAt.Format(time.RFC3339),
	}
	if a.ReviewedAt != nil {
		resp.ReviewedAt = a.ReviewedAt.Format(time.RFC3339)
	}
	return resp
}
