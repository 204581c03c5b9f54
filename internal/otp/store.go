// Package otp реализует хранилище одноразовых кодов в Redis: выпуск с
// ограничением частоты и одноразовую проверку.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// ErrRateLimited возвращается при нарушении паузы между отправками или часовой квоты.
var (
	ErrRateLimited = errors.New("otp rate limited")
	// ErrCodeExpired возвращается, если код не выпускался или его срок истёк.
	ErrCodeExpired = errors.New("otp expired or not issued")
)

const (
	codeTTL        = 5 * time.Minute
	resendCooldown = 60 * time.Second
	hourlyLimit    = 60
)

// Store хранит хешированные одноразовые коды и счётчики отправок в Redis.
type Store struct {
	client *redis.Client
}

// NewStore создаёт хранилище одноразовых кодов поверх указанного клиента Redis.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func codeKey(email string) string     { return "otp:data:" + email }
func lastSentKey(email string) string { return "otp:lastSent:" + email }
func countKey(email string) string    { return "otp:count:" + email }

func generateCode() (string, error) {
	// Шестизначный код без ведущих нулей
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue выпускает новый код для адреса и возвращает его для доставки.
// Пауза между отправками и часовая квота проверяются до выпуска.
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	ok, err := s.client.SetNX(ctx, lastSentKey(email), time.Now().Unix(), resendCooldown).Result()
	if err != nil {
		return "", fmt.Errorf("set cooldown: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: resend cooldown", ErrRateLimited)
	}

	count, err := s.client.Incr(ctx, countKey(email)).Result()
	if err != nil {
		return "", fmt.Errorf("incr counter: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, countKey(email), time.Hour).Err(); err != nil {
			return "", fmt.Errorf("expire counter: %w", err)
		}
	}
	if count > hourlyLimit {
		return "", fmt.Errorf("%w: hourly limit exceeded", ErrRateLimited)
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	if err := s.client.Set(ctx, codeKey(email), string(hash), codeTTL).Err(); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}

	return code, nil
}

// Verify сравнивает код с сохранённым хешем. Успешно проверенный код
// удаляется и повторно использован быть не может.
func (s *Store) Verify(ctx context.Context, email, code string) (bool, error) {
	hash, err := s.client.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, ErrCodeExpired
	}
	if err != nil {
		return false, fmt.Errorf("get code: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return false, nil
	}

	if err := s.client.Del(ctx, codeKey(email)).Err(); err != nil {
		return false, fmt.Errorf("consume code: %w", err)
	}

	return true, nil
}
