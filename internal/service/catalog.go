package service

import (
	"context"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
)

// GetCard возвращает открытку каталога по идентификатору.
func (s *Service) GetCard(ctx context.Context, id int64) (*model.Card, error) {
	return s.repo.GetCard(ctx, id)
}

// ListCards возвращает страницу каталога по фильтру и общее количество совпадений.
func (s *Service) ListCards(ctx context.Context, f repository.CardFilter) ([]model.Card, int64, error) {
	return s.repo.ListCards(ctx, f)
}

// CreateCard добавляет открытку в каталог.
func (s *Service) CreateCard(ctx context.Context, c *model.Card) (*model.Card, error) {
	id, err := s.repo.CreateCard(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.repo.GetCard(ctx, id)
}

// UpdateCard перезаписывает поля открытки.
func (s *Service) UpdateCard(ctx context.Context, c *model.Card) (*model.Card, error) {
	if err := s.repo.UpdateCard(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetCard(ctx, c.ID)
}

// UpdateCardRating обновляет рейтинг и счётчик отзывов открытки.
func (s *Service) UpdateCardRating(ctx context.Context, id int64, rating float64, reviewsCount int64) (*model.Card, error) {
	if err := s.repo.UpdateCardRating(ctx, id, rating, reviewsCount); err != nil {
		return nil, err
	}
	return s.repo.GetCard(ctx, id)
}

// DeleteCard удаляет открытку из каталога.
func (s *Service) DeleteCard(ctx context.Context, id int64) error {
	return s.repo.DeleteCard(ctx, id)
}
