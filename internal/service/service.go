// Package service реализует бизнес-логику магазина пригласительных открыток.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/token"
)

// ErrInvalidCredentials возвращается при неверном пароле или refresh-токене.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOTP возвращается при неверном или просроченном одноразовом коде.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrCartEmpty возвращается при попытке оформить заказ с пустой корзиной.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrReapplyCooldown возвращается при повторной заявке раньше, чем через три дня после отказа.
	ErrReapplyCooldown = errors.New("reapply cooldown is active")
	// ErrInvalidReview возвращается при недопустимой оценке отзыва.
	ErrInvalidReview = errors.New("invalid review")
)

// reapplyCooldown задаёт паузу между отказом и новой заявкой на оптовый доступ.
const reapplyCooldown = 3 * 24 * time.Hour

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, name, email, phone string, passwordHash []byte) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id int64, upd repository.ProfileUpdate) (*model.User, error)
	SetRefreshTokenHash(ctx context.Context, id int64, hash string) error
	GetRefreshTokenHash(ctx context.Context, id int64) (string, error)
	SetUserBanned(ctx context.Context, id int64, banned bool) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, f repository.UserFilter) ([]model.User, int64, error)

	CreateCard(ctx context.Context, c *model.Card) (int64, error)
	GetCard(ctx context.Context, id int64) (*model.Card, error)
	UpdateCard(ctx context.Context, c *model.Card) error
	UpdateCardRating(ctx context.Context, id int64, rating float64, reviewsCount int64) error
	DeleteCard(ctx context.Context, id int64) error
	ListCards(ctx context.Context, f repository.CardFilter) ([]model.Card, int64, error)

	AddCartItem(ctx context.Context, userID, cardID, quantity int64) error
	RemoveCartItem(ctx context.Context, userID, cardID int64) error
	SetCartItemQuantity(ctx context.Context, userID, cardID, quantity int64) error
	GetCart(ctx context.Context, userID int64) (*model.Cart, error)
	ClearCart(ctx context.Context, userID int64) error

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	CancelOrder(ctx context.Context, orderID, userID int64) error
	UpdateOrderStatus(ctx context.Context, orderID int64, to model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus, transactionID string) error
	AttachTracking(ctx context.Context, orderID int64, deliveryPartner, trackingID string) error
	DeleteOrder(ctx context.Context, orderID int64) error

	CreateReview(ctx context.Context, rev *model.Review) error
	GetReview(ctx context.Context, id int64) (*model.Review, error)
	UpdateReview(ctx context.Context, id int64, rating int, comment string) (*model.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	ListCardReviews(ctx context.Context, cardID int64) ([]model.Review, error)
	ListReviews(ctx context.Context, page, limit int) ([]model.Review, int64, error)

	CreateApplication(ctx context.Context, a *model.WholesalerApplication) error
	GetApplicationByUser(ctx context.Context, userID int64) (*model.WholesalerApplication, error)
	LatestDeclinedApplication(ctx context.Context, userID int64) (*model.WholesalerApplication, error)
	ListApplications(ctx context.Context, status model.WholesalerStatus) ([]model.WholesalerApplication, error)
	ReviewApplication(ctx context.Context, appID int64, approve bool, reviewedAt time.Time) (*model.WholesalerApplication, error)
}

// OTPStore описывает хранилище одноразовых кодов.
type OTPStore interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) (bool, error)
}

// OTPSender доставляет одноразовый код адресату. Почтовая доставка вынесена
// за пределы ядра: по умолчанию используется реализация, пишущая в лог.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogSender пишет одноразовые коды в лог вместо отправки почты.
type LogSender struct {
	Logger *zap.Logger
}

// SendOTP записывает выданный код в лог.
func (s *LogSender) SendOTP(_ context.Context, email, code string) error {
	s.Logger.Info("otp issued", zap.String("email", email), zap.String("code", code))
	return nil
}

// Service содержит бизнес-логику магазина открыток.
type Service struct {
	repo    Repository
	otp     OTPStore
	sender  OTPSender
	tokens  *token.Manager
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewService создаёт сервис с указанными зависимостями.
func NewService(repo Repository, otp OTPStore, sender OTPSender, tokens *token.Manager, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		otp:     otp,
		sender:  sender,
		tokens:  tokens,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}
