// Package token реализует выпуск и проверку пары JWT access/refresh токенов.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

// ErrInvalidToken возвращается для отсутствующего, повреждённого или просроченного токена.
var ErrInvalidToken = errors.New("invalid token")

const (
	// AccessTTL ограничивает время жизни access-токена.
	AccessTTL = 15 * time.Minute
	// RefreshTTL ограничивает время жизни refresh-токена и auth-cookie.
	RefreshTTL = 7 * 24 * time.Hour
)

// Claims содержит полезную нагрузку access-токена.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет подписанные токены.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewManager создаёт менеджер токенов с указанными секретами подписи.
func NewManager(accessSecret, refreshSecret string) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// NewPair выпускает пару access/refresh токенов для пользователя.
func (m *Manager) NewPair(user *model.User) (access string, refresh string, err error) {
	now := time.Now()
	sub := strconv.FormatInt(user.ID, 10)

	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, string(r))
	}

	accessClaims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
		},
	}
	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(m.accessSecret)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	// jti делает каждый выпущенный токен уникальным: без него две пары,
	// выпущенные в одну секунду, совпали бы байт в байт.
	refreshClaims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTTL)),
	}
	refresh, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(m.refreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	return access, refresh, nil
}

func (m *Manager) parse(tokenString string, secret []byte, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}

// ParseAccess проверяет access-токен и возвращает идентификатор пользователя.
func (m *Manager) ParseAccess(tokenString string) (int64, error) {
	claims := &Claims{}
	if err := m.parse(tokenString, m.accessSecret, claims); err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// ParseRefresh проверяет refresh-токен и возвращает идентификатор пользователя.
func (m *Manager) ParseRefresh(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	if err := m.parse(tokenString, m.refreshSecret, claims); err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}
