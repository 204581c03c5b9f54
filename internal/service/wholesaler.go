package service

import (
	"context"
	"errors"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
)

// ApplicationInput содержит данные заявки на оптовый доступ.
type ApplicationInput struct {
	Email           string
	BusinessName    string
	OwnerName       string
	GSTNumber       string
	BusinessAddress string
	ContactNumber   string
}

// ApplyWholesaler подаёт заявку на оптовый доступ. Новая заявка блокируется,
// пока предыдущая на рассмотрении, и в течение трёх дней после отказа.
func (s *Service) ApplyWholesaler(ctx context.Context, userID int64, in ApplicationInput) (*model.WholesalerApplication, error) {
	declined, err := s.repo.LatestDeclinedApplication(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrApplicationNotFound) {
		return nil, err
	}
	if declined != nil && declined.ReviewedAt != nil {
		if s.nowFunc().Before(declined.ReviewedAt.Add(reapplyCooldown)) {
			return nil, ErrReapplyCooldown
		}
	}

	app := &model.WholesalerApplication{
		UserID:          userID,
		Email:           in.Email,
		BusinessName:    in.BusinessName,
		OwnerName:       in.OwnerName,
		GSTNumber:       in.GSTNumber,
		BusinessAddress: in.BusinessAddress,
		ContactNumber:   in.ContactNumber,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// GetOwnApplication возвращает последнюю заявку пользователя.
func (s *Service) GetOwnApplication(ctx context.Context, userID int64) (*model.WholesalerApplication, error) {
	return s.repo.GetApplicationByUser(ctx, userID)
}

// ListApplications возвращает заявки для админки.
func (s *Service) ListApplications(ctx context.Context, status model.WholesalerStatus) ([]model.WholesalerApplication, error) {
	return s.repo.ListApplications(ctx, status)
}

// ReviewApplication фиксирует решение админа по заявке.
func (s *Service) ReviewApplication(ctx context.Context, appID int64, approve bool) (*model.WholesalerApplication, error) {
	return s.repo.ReviewApplication(ctx, appID, approve, s.nowFunc())
}
