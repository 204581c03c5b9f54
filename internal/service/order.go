package service

import (
	"context"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
)

// GetUserOrders возвращает заказы пользователя, новые первыми.
func (s *Service) GetUserOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// GetOrder возвращает заказ. Чужой заказ доступен только админу.
func (s *Service) GetOrder(ctx context.Context, orderID int64, requester *model.User) (*model.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requester.ID && !requester.HasRole(model.RoleAdmin) {
		return nil, repository.ErrOrderNotOwned
	}
	return order, nil
}

// CancelOrder отменяет заказ по запросу владельца. Разрешено только из pending.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	if err := s.repo.CancelOrder(ctx, orderID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, orderID)
}

// ListOrders возвращает все заказы для админки.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// UpdateOrderStatus выполняет админскую смену статуса заказа.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, to model.OrderStatus) (*model.Order, error) {
	if err := s.repo.UpdateOrderStatus(ctx, orderID, to); err != nil {
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, orderID)
}

// UpdatePaymentStatus обновляет состояние оплаты заказа.
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus, transactionID string) (*model.Order, error) {
	if err := s.repo.UpdatePaymentStatus(ctx, orderID, status, transactionID); err != nil {
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, orderID)
}

// AttachTracking сохраняет данные доставки заказа.
func (s *Service) AttachTracking(ctx context.Context, orderID int64, deliveryPartner, trackingID string) (*model.Order, error) {
	if err := s.repo.AttachTracking(ctx, orderID, deliveryPartner, trackingID); err != nil {
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, orderID)
}

// DeleteOrder удаляет заказ.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	return s.repo.DeleteOrder(ctx, orderID)
}
