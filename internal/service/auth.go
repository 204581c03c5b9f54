package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/otp"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/validation"
)

// refreshHash возвращает отпечаток refresh-токена для хранения в БД.
// Сам токен в базу не попадает.
func refreshHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, name, email, phone, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, name, email, phone, hash)
	if err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (string, string, error) {
	access, refresh, err := s.tokens.NewPair(user)
	if err != nil {
		return "", "", err
	}
	if err := s.repo.SetRefreshTokenHash(ctx, user.ID, refreshHash(refresh)); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// AuthenticateUser проверяет пароль пользователя по email или телефону и
// выпускает пару токенов.
func (s *Service) AuthenticateUser(ctx context.Context, emailOrPhone, password string) (*model.User, string, string, error) {
	var (
		user *model.User
		err  error
	)
	if validation.IsValidPhone(emailOrPhone) {
		user, err = s.repo.GetUserByPhone(ctx, emailOrPhone)
	} else {
		user, err = s.repo.GetUserByEmail(ctx, emailOrPhone)
	}
	if err != nil {
		return nil, "", "", err
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

// AuthenticateWithOTP проверяет одноразовый код и выпускает пару токенов.
func (s *Service) AuthenticateWithOTP(ctx context.Context, email, code string) (*model.User, string, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", "", err
	}

	ok, err := s.verifyOTP(ctx, email, code)
	if err != nil {
		return nil, "", "", err
	}
	if !ok {
		return nil, "", "", ErrInvalidOTP
	}

	access, refresh, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

// Logout сбрасывает refresh-сессию пользователя.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.SetRefreshTokenHash(ctx, userID, "")
}

// RefreshTokens проверяет refresh-токен, сверяет его с сохранённым отпечатком
// и выпускает новую пару. Старый refresh-токен при этом перестаёт действовать.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*model.User, string, string, error) {
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	stored, err := s.repo.GetRefreshTokenHash(ctx, userID)
	if err != nil {
		return nil, "", "", err
	}
	if stored == "" || stored != refreshHash(refreshToken) {
		return nil, "", "", ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", "", err
	}

	access, refresh, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

// ProfileUpdate описывает запрос на изменение профиля. Смена email требует
// кода, подтверждающего владение новым адресом.
type ProfileUpdate struct {
	Name  string
	Phone string
	Email string
	OTP   string
}

// UpdateProfile применяет изменения профиля текущего пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*model.User, error) {
	if upd.Email != "" {
		ok, err := s.verifyOTP(ctx, upd.Email, upd.OTP)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidOTP
		}
	}

	return s.repo.UpdateUserProfile(ctx, userID, repository.ProfileUpdate{
		Name:  upd.Name,
		Phone: upd.Phone,
		Email: upd.Email,
	})
}

// verifyOTP сводит «код не выпускался или истёк» к обычному несовпадению,
// чтобы наружу не утекало, существует ли код для адреса.
func (s *Service) verifyOTP(ctx context.Context, email, code string) (bool, error) {
	ok, err := s.otp.Verify(ctx, email, code)
	if err != nil {
		if errors.Is(err, otp.ErrCodeExpired) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// SendOTP выпускает одноразовый код и передаёт его отправителю.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	code, err := s.otp.Issue(ctx, email)
	if err != nil {
		return err
	}
	return s.sender.SendOTP(ctx, email, code)
}

// CheckOTP проверяет одноразовый код. Успешная проверка расходует код.
func (s *Service) CheckOTP(ctx context.Context, email, code string) (bool, error) {
	return s.verifyOTP(ctx, email, code)
}
