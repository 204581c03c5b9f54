package service

import (
	"context"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

// AddCartItem добавляет открытку в корзину пользователя. Повторное добавление
// увеличивает количество существующей позиции.
func (s *Service) AddCartItem(ctx context.Context, userID, cardID, quantity int64) (*model.Cart, error) {
	if err := s.repo.AddCartItem(ctx, userID, cardID, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetCart(ctx, userID)
}

// RemoveCartItem удаляет позицию из корзины пользователя.
func (s *Service) RemoveCartItem(ctx context.Context, userID, cardID int64) (*model.Cart, error) {
	if err := s.repo.RemoveCartItem(ctx, userID, cardID); err != nil {
		return nil, err
	}
	return s.repo.GetCart(ctx, userID)
}

// SetCartItemQuantity выставляет количество у существующей позиции корзины.
func (s *Service) SetCartItemQuantity(ctx context.Context, userID, cardID, quantity int64) (*model.Cart, error) {
	if err := s.repo.SetCartItemQuantity(ctx, userID, cardID, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetCart(ctx, userID)
}

// GetCart возвращает корзину пользователя с актуальными данными каталога.
// Суммы пересчитываются при каждом чтении и не кешируются.
func (s *Service) GetCart(ctx context.Context, userID int64) (*model.Cart, error) {
	return s.repo.GetCart(ctx, userID)
}

// ClearCart удаляет корзину пользователя целиком.
func (s *Service) ClearCart(ctx context.Context, userID int64) error {
	return s.repo.ClearCart(ctx, userID)
}
