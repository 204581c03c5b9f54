package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
)

// PlaceOrderInput содержит параметры оформления заказа. Денежные поля в пайсах.
type PlaceOrderInput struct {
	Discount        int64
	Tax             int64
	ShippingFee     int64
	PaymentMethod   model.PaymentMethod
	ShippingAddress model.ShippingAddress
}

// PlaceOrder оформляет заказ из корзины пользователя: снимает актуальные цены
// каталога в снимок позиций, считает итог и создаёт заказ в статусе pending.
// Остатки склада при оформлении не резервируются.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (*model.Order, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, ErrCartEmpty
	}

	items := make([]model.OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, model.OrderItem{
			CardID:   l.CardID,
			Name:     l.Name,
			Category: l.Category,
			Price:    l.Price,
			Discount: l.Discount,
			Quantity: l.Quantity,
			Image:    l.Image,
		})
	}

	total := cart.Total()
	order := &model.Order{
		UID:             uuid.NewString(),
		UserID:          userID,
		Status:          model.OrderStatusPending,
		Items:           items,
		TotalAmount:     total,
		Discount:        in.Discount,
		Tax:             in.Tax,
		ShippingFee:     in.ShippingFee,
		FinalAmount:     total - in.Discount + in.Tax + in.ShippingFee,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		ShippingAddress: in.ShippingAddress,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	// Очистка корзины не входит в транзакцию создания заказа: заказ уже
	// существует, поэтому сбой здесь только логируется.
	if err := s.repo.ClearCart(ctx, userID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.logger.Warn("cart clear after order failed",
			zap.Int64("userID", userID),
			zap.String("orderUID", order.UID),
			zap.Error(err),
		)
	}

	return order, nil
}
