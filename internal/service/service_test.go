package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/token"
)

type stubRepo struct {
	createUserID  int64
	createUserErr error

	userByID    *model.User
	userByIDErr error

	userByEmail    *model.User
	userByEmailErr error
	emailCalled    bool

	userByPhone    *model.User
	userByPhoneErr error
	phoneCalled    bool

	refreshHash    string
	refreshHashErr error

	cart    *model.Cart
	cartErr error

	createdOrder   *model.Order
	createOrderErr error

	clearCartErr    error
	clearCartCalled bool

	cancelOrderErr error

	declinedApp    *model.WholesalerApplication
	declinedAppErr error

	createdApp   *model.WholesalerApplication
	createAppErr error

	review             *model.Review
	reviewErr          error
	createReviewErr    error
	deleteReviewCalled bool
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, name, email, phone string, passwordHash []byte) (int64, error) {
	return s.createUserID, s.createUserErr
}

func (s *stubRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userByID, s.userByIDErr
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.emailCalled = true
	return s.userByEmail, s.userByEmailErr
}

func (s *stubRepo) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	s.phoneCalled = true
	return s.userByPhone, s.userByPhoneErr
}

func (s *stubRepo) UpdateUserProfile(ctx context.Context, id int64, upd repository.ProfileUpdate) (*model.User, error) {
	return s.userByID, nil
}

func (s *stubRepo) SetRefreshTokenHash(ctx context.Context, id int64, hash string) error {
	s.refreshHash = hash
	return nil
}

func (s *stubRepo) GetRefreshTokenHash(ctx context.Context, id int64) (string, error) {
	return s.refreshHash, s.refreshHashErr
}

func (s *stubRepo) SetUserBanned(ctx context.Context, id int64, banned bool) error { return nil }
func (s *stubRepo) DeleteUser(ctx context.Context, id int64) error                 { return nil }

func (s *stubRepo) ListUsers(ctx context.Context, f repository.UserFilter) ([]model.User, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) CreateCard(ctx context.Context, c *model.Card) (int64, error) { return 1, nil }
func (s *stubRepo) GetCard(ctx context.Context, id int64) (*model.Card, error)   { return nil, nil }
func (s *stubRepo) UpdateCard(ctx context.Context, c *model.Card) error          { return nil }
func (s *stubRepo) UpdateCardRating(ctx context.Context, id int64, rating float64, reviewsCount int64) error {
	return nil
}
func (s *stubRepo) DeleteCard(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) ListCards(ctx context.Context, f repository.CardFilter) ([]model.Card, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) AddCartItem(ctx context.Context, userID, cardID, quantity int64) error {
	return nil
}
func (s *stubRepo) RemoveCartItem(ctx context.Context, userID, cardID int64) error { return nil }
func (s *stubRepo) SetCartItemQuantity(ctx context.Context, userID, cardID, quantity int64) error {
	return nil
}

func (s *stubRepo) GetCart(ctx context.Context, userID int64) (*model.Cart, error) {
	return s.cart, s.cartErr
}

func (s *stubRepo) ClearCart(ctx context.Context, userID int64) error {
	s.clearCartCalled = true
	return s.clearCartErr
}

func (s *stubRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	if s.createOrderErr != nil {
		return s.createOrderErr
	}
	o.ID = 1
	o.PlacedAt = time.Now()
	s.createdOrder = o
	return nil
}

func (s *stubRepo) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	return s.createdOrder, nil
}

func (s *stubRepo) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) ListOrders(ctx context.Context) ([]model.Order, error) { return nil, nil }

func (s *stubRepo) CancelOrder(ctx context.Context, orderID, userID int64) error {
	return s.cancelOrderErr
}

func (s *stubRepo) UpdateOrderStatus(ctx context.Context, orderID int64, to model.OrderStatus) error {
	return nil
}

func (s *stubRepo) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus, transactionID string) error {
	return nil
}

func (s *stubRepo) AttachTracking(ctx context.Context, orderID int64, deliveryPartner, trackingID string) error {
	return nil
}

func (s *stubRepo) DeleteOrder(ctx context.Context, orderID int64) error { return nil }

func (s *stubRepo) CreateApplication(ctx context.Context, a *model.WholesalerApplication) error {
	if s.createAppErr != nil {
		return s.createAppErr
	}
	a.ID = 1
	a.Status = model.WholesalerStatusPending
	s.createdApp = a
	return nil
}

func (s *stubRepo) GetApplicationByUser(ctx context.Context, userID int64) (*model.WholesalerApplication, error) {
	return s.createdApp, nil
}

func (s *stubRepo) LatestDeclinedApplication(ctx context.Context, userID int64) (*model.WholesalerApplication, error) {
	return s.declinedApp, s.declinedAppErr
}

func (s *stubRepo) ListApplications(ctx context.Context, status model.WholesalerStatus) ([]model.WholesalerApplication, error) {
	return nil, nil
}

func (s *stubRepo) ReviewApplication(ctx context.Context, appID int64, approve bool, reviewedAt time.Time) (*model.WholesalerApplication, error) {
	return s.createdApp, nil
}

func (s *stubRepo) CreateReview(ctx context.Context, rev *model.Review) error {
	if s.createReviewErr != nil {
		return s.createReviewErr
	}
	rev.ID = 1
	s.review = rev
	return nil
}

func (s *stubRepo) GetReview(ctx context.Context, id int64) (*model.Review, error) {
	return s.review, s.reviewErr
}

func (s *stubRepo) UpdateReview(ctx context.Context, id int64, rating int, comment string) (*model.Review, error) {
	s.review.Rating = rating
	s.review.Comment = comment
	return s.review, nil
}

func (s *stubRepo) DeleteReview(ctx context.Context, id int64) error {
	s.deleteReviewCalled = true
	return nil
}

func (s *stubRepo) ListCardReviews(ctx context.Context, cardID int64) ([]model.Review, error) {
	return nil, nil
}

func (s *stubRepo) ListReviews(ctx context.Context, page, limit int) ([]model.Review, int64, error) {
	return nil, 0, nil
}

type stubOTP struct {
	code      string
	issueErr  error
	verifyOK  bool
	verifyErr error
}

func (s *stubOTP) Issue(ctx context.Context, email string) (string, error) {
	return s.code, s.issueErr
}

func (s *stubOTP) Verify(ctx context.Context, email, code string) (bool, error) {
	return s.verifyOK, s.verifyErr
}

func newTestService(repo *stubRepo, otp *stubOTP) *Service {
	logger := zap.NewNop()
	tokens := token.NewManager("test-access", "test-refresh")
	return NewService(repo, otp, &LogSender{Logger: logger}, tokens, logger)
}

func TestRegisterUser_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{createUserErr: repository.ErrUserExists}
	svc := newTestService(repo, &stubOTP{})

	_, err := svc.RegisterUser(context.Background(), "name", "a@b.cd", "9876543210", "secret")
	if !errors.Is(err, repository.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthenticateUser_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	repo := &stubRepo{
		userByEmail: &model.User{ID: 1, Email: "a@b.cd", PasswordHash: hash},
	}
	svc := newTestService(repo, &stubOTP{})

	_, _, _, err = svc.AuthenticateUser(context.Background(), "a@b.cd", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUser_DispatchesByIdentifier(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	user := &model.User{ID: 1, PasswordHash: hash, Roles: []model.Role{model.RoleUser}}

	repo := &stubRepo{userByPhone: user}
	svc := newTestService(repo, &stubOTP{})

	if _, _, _, err := svc.AuthenticateUser(context.Background(), "9876543210", "secret"); err != nil {
		t.Fatalf("phone login error: %v", err)
	}
	if !repo.phoneCalled || repo.emailCalled {
		t.Fatalf("ten digit identifier must be looked up by phone")
	}

	repo = &stubRepo{userByEmail: user}
	svc = newTestService(repo, &stubOTP{})

	if _, _, _, err := svc.AuthenticateUser(context.Background(), "a@b.cd", "secret"); err != nil {
		t.Fatalf("email login error: %v", err)
	}
	if !repo.emailCalled || repo.phoneCalled {
		t.Fatalf("email identifier must be looked up by email")
	}
}

func TestRefreshTokens_RotatesStoredHash(t *testing.T) {
	user := &model.User{ID: 7, Roles: []model.Role{model.RoleUser}}
	repo := &stubRepo{userByID: user, userByEmail: user}
	svc := newTestService(repo, &stubOTP{})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	user.PasswordHash = hash

	_, _, refresh, err := svc.AuthenticateUser(context.Background(), "a@b.cd", "secret")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	firstHash := repo.refreshHash

	_, _, newRefresh, err := svc.RefreshTokens(context.Background(), refresh)
	if err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if newRefresh == refresh {
		t.Fatalf("refresh token must rotate")
	}
	if repo.refreshHash == firstHash {
		t.Fatalf("stored refresh hash must change after rotation")
	}

	// Старый токен больше не совпадает с сохранённым отпечатком.
	if _, _, _, err := svc.RefreshTokens(context.Background(), refresh); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for stale token, got %v", err)
	}
}

func TestRefreshTokens_RejectsGarbage(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubOTP{})

	_, _, _, err := svc.RefreshTokens(context.Background(), "not-a-token")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdateProfile_EmailChangeRequiresOTP(t *testing.T) {
	repo := &stubRepo{userByID: &model.User{ID: 1}}
	svc := newTestService(repo, &stubOTP{verifyOK: false})

	_, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Email: "new@b.cd", OTP: "000000"})
	if !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	// Без смены email код не требуется.
	if _, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Name: "New Name"}); err != nil {
		t.Fatalf("name-only update error: %v", err)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	repo := &stubRepo{cart: &model.Cart{UserID: 1}}
	svc := newTestService(repo, &stubOTP{})

	_, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderInput{PaymentMethod: model.PaymentCOD})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
	if repo.createdOrder != nil {
		t.Fatalf("no order must be created for an empty cart")
	}
}

func TestPlaceOrder_Amounts(t *testing.T) {
	repo := &stubRepo{cart: &model.Cart{
		UserID: 1,
		Lines: []model.CartLine{
			{CardID: 10, Name: "Golden Peacock", Price: 10000, Discount: 500, Quantity: 2},
			{CardID: 11, Name: "Lotus Invite", Price: 5000, Quantity: 1},
		},
	}}
	svc := newTestService(repo, &stubOTP{})

	order, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderInput{
		Discount:      2000,
		Tax:           500,
		ShippingFee:   1000,
		PaymentMethod: model.PaymentUPI,
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	if order.TotalAmount != 25000 {
		t.Fatalf("TotalAmount = %d, want 25000", order.TotalAmount)
	}
	if order.FinalAmount != 24500 {
		t.Fatalf("FinalAmount = %d, want 24500", order.FinalAmount)
	}
	if order.Status != model.OrderStatusPending {
		t.Fatalf("Status = %s, want pending", order.Status)
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("PaymentStatus = %s, want pending", order.PaymentStatus)
	}
	if order.UID == "" {
		t.Fatalf("order UID must be set")
	}
	if len(order.Items) != 2 || order.Items[0].Price != 10000 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if !repo.clearCartCalled {
		t.Fatalf("cart must be cleared after order creation")
	}
}

func TestPlaceOrder_CartClearFailureDoesNotFailOrder(t *testing.T) {
	repo := &stubRepo{
		cart: &model.Cart{
			UserID: 1,
			Lines:  []model.CartLine{{CardID: 10, Price: 100, Quantity: 1}},
		},
		clearCartErr: errors.New("connection reset"),
	}
	svc := newTestService(repo, &stubOTP{})

	order, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderInput{PaymentMethod: model.PaymentCOD})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	if order == nil || order.ID == 0 {
		t.Fatalf("order must be created despite cart clear failure")
	}
}

func TestCancelOrder_PropagatesNotPending(t *testing.T) {
	repo := &stubRepo{cancelOrderErr: repository.ErrOrderNotPending}
	svc := newTestService(repo, &stubOTP{})

	_, err := svc.CancelOrder(context.Background(), 1, 1)
	if !errors.Is(err, repository.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
}

func TestApplyWholesaler_DeclineCooldown(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	reviewed := now.Add(-24 * time.Hour)
	repo := &stubRepo{declinedApp: &model.WholesalerApplication{
		Status:     model.WholesalerStatusDeclined,
		ReviewedAt: &reviewed,
	}}
	svc := newTestService(repo, &stubOTP{})
	svc.nowFunc = func() time.Time { return now }

	in := ApplicationInput{
		Email:           "shop@b.cd",
		BusinessName:    "Shubh Cards",
		OwnerName:       "Owner",
		GSTNumber:       "22AAAAA0000A1Z5",
		BusinessAddress: "12 Market Road",
		ContactNumber:   "9876543210",
	}

	if _, err := svc.ApplyWholesaler(context.Background(), 1, in); !errors.Is(err, ErrReapplyCooldown) {
		t.Fatalf("expected ErrReapplyCooldown one day after decline, got %v", err)
	}

	reviewedOld := now.Add(-4 * 24 * time.Hour)
	repo = &stubRepo{declinedApp: &model.WholesalerApplication{
		Status:     model.WholesalerStatusDeclined,
		ReviewedAt: &reviewedOld,
	}}
	svc = newTestService(repo, &stubOTP{})
	svc.nowFunc = func() time.Time { return now }

	app, err := svc.ApplyWholesaler(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("ApplyWholesaler error after cooldown: %v", err)
	}
	if app.Status != model.WholesalerStatusPending {
		t.Fatalf("new application status = %s, want pending", app.Status)
	}
}

func TestApplyWholesaler_PendingConflict(t *testing.T) {
	repo := &stubRepo{createAppErr: repository.ErrApplicationPending}
	svc := newTestService(repo, &stubOTP{})

	_, err := svc.ApplyWholesaler(context.Background(), 1, ApplicationInput{Email: "a@b.cd"})
	if !errors.Is(err, repository.ErrApplicationPending) {
		t.Fatalf("expected ErrApplicationPending, got %v", err)
	}
}

func TestSendOTP_DeliversIssuedCode(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubOTP{code: "123456"})

	if err := svc.SendOTP(context.Background(), "a@b.cd"); err != nil {
		t.Fatalf("SendOTP error: %v", err)
	}
}

func TestCreateReview_RejectsBadRating(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubOTP{})

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(context.Background(), 1, 2, rating, "ok")
		if !errors.Is(err, ErrInvalidReview) {
			t.Fatalf("rating %d: expected ErrInvalidReview, got %v", rating, err)
		}
	}
}

func TestCreateReview_PropagatesDuplicate(t *testing.T) {
	repo := &stubRepo{createReviewErr: repository.ErrReviewExists}
	svc := newTestService(repo, &stubOTP{})

	_, err := svc.CreateReview(context.Background(), 1, 2, 5, "nice")
	if !errors.Is(err, repository.ErrReviewExists) {
		t.Fatalf("expected ErrReviewExists, got %v", err)
	}
}

func TestUpdateReview_ForeignUserForbidden(t *testing.T) {
	repo := &stubRepo{review: &model.Review{ID: 7, UserID: 2, Rating: 4}}
	svc := newTestService(repo, &stubOTP{})

	stranger := &model.User{ID: 1, Roles: []model.Role{model.RoleUser}}
	_, err := svc.UpdateReview(context.Background(), 7, stranger, 5, "edited")
	if !errors.Is(err, repository.ErrReviewNotOwned) {
		t.Fatalf("expected ErrReviewNotOwned, got %v", err)
	}

	admin := &model.User{ID: 1, Roles: []model.Role{model.RoleAdmin}}
	rev, err := svc.UpdateReview(context.Background(), 7, admin, 5, "edited")
	if err != nil {
		t.Fatalf("admin UpdateReview error: %v", err)
	}
	if rev.Rating != 5 {
		t.Fatalf("rating = %d, want 5", rev.Rating)
	}
}

func TestDeleteReview_OwnerAllowed(t *testing.T) {
	repo := &stubRepo{review: &model.Review{ID: 7, UserID: 1}}
	svc := newTestService(repo, &stubOTP{})

	owner := &model.User{ID: 1, Roles: []model.Role{model.RoleUser}}
	if err := svc.DeleteReview(context.Background(), 7, owner); err != nil {
		t.Fatalf("DeleteReview error: %v", err)
	}
	if !repo.deleteReviewCalled {
		t.Fatal("repository DeleteReview was not called")
	}
}
