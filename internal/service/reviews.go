package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
)

// CreateReview сохраняет отзыв пользователя на открытку. Повторный отзыв на ту
// же открытку отклоняется. Рейтинг открытки пересчитывается в той же транзакции.
func (s *Service) CreateReview(ctx context.Context, userID, cardID int64, rating int, comment string) (*model.Review, error) {
	if !model.ValidRating(rating) {
		return nil, fmt.Errorf("%w: rating out of range", ErrInvalidReview)
	}

	rev := &model.Review{
		CardID:  cardID,
		UserID:  userID,
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
	}
	if err := s.repo.CreateReview(ctx, rev); err != nil {
		return nil, err
	}
	return s.repo.GetReview(ctx, rev.ID)
}

// UpdateReview изменяет отзыв. Чужой отзыв может менять только админ.
func (s *Service) UpdateReview(ctx context.Context, reviewID int64, requester *model.User, rating int, comment string) (*model.Review, error) {
	if !model.ValidRating(rating) {
		return nil, fmt.Errorf("%w: rating out of range", ErrInvalidReview)
	}

	rev, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rev.UserID != requester.ID && !requester.HasRole(model.RoleAdmin) {
		return nil, repository.ErrReviewNotOwned
	}

	return s.repo.UpdateReview(ctx, reviewID, rating, strings.TrimSpace(comment))
}

// DeleteReview удаляет отзыв. Чужой отзыв может удалять только админ.
func (s *Service) DeleteReview(ctx context.Context, reviewID int64, requester *model.User) error {
	rev, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if rev.UserID != requester.ID && !requester.HasRole(model.RoleAdmin) {
		return repository.ErrReviewNotOwned
	}

	return s.repo.DeleteReview(ctx, reviewID)
}

// ListCardReviews возвращает отзывы на открытку, новые первыми.
func (s *Service) ListCardReviews(ctx context.Context, cardID int64) ([]model.Review, error) {
	if _, err := s.repo.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	return s.repo.ListCardReviews(ctx, cardID)
}

// ListReviews возвращает страницу всех отзывов для админки.
func (s *Service) ListReviews(ctx context.Context, page, limit int) ([]model.Review, int64, error) {
	return s.repo.ListReviews(ctx, page, limit)
}
