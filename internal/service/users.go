package service

import (
	"context"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
)

// GetUserByID возвращает пользователя по идентификатору.
func (s *Service) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers возвращает страницу пользователей для админки.
func (s *Service) ListUsers(ctx context.Context, f repository.UserFilter) ([]model.User, int64, error) {
	return s.repo.ListUsers(ctx, f)
}

// SetUserBanned выставляет флаг блокировки пользователя.
func (s *Service) SetUserBanned(ctx context.Context, id int64, banned bool) error {
	return s.repo.SetUserBanned(ctx, id, banned)
}

// DeleteUser удаляет пользователя.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
