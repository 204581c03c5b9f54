package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

const userColumns = `id, name, email, phone, password_hash, roles, wholesaler_status, is_banned, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u     model.User
		roles []string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &roles, &u.WholesalerStatus, &u.Banned, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	for _, r := range roles {
		u.Roles = append(u.Roles, model.Role(r))
	}
	return &u, nil
}

// CreateUser создаёт нового пользователя с ролью user.
func (r *PostgresRepository) CreateUser(ctx context.Context, name, email, phone string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, password_hash) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, email, phone, passwordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByPhone возвращает пользователя по номеру телефона.
func (r *PostgresRepository) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// ProfileUpdate содержит изменяемые поля профиля. Пустые поля не трогаются.
type ProfileUpdate struct {
	Name  string
	Phone string
	Email string
}

// UpdateUserProfile применяет изменения профиля и возвращает обновлённого пользователя.
func (r *PostgresRepository) UpdateUserProfile(ctx context.Context, id int64, upd ProfileUpdate) (*model.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	if upd.Name != "" {
		args = append(args, upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Phone != "" {
		args = append(args, upd.Phone)
		sets = append(sets, fmt.Sprintf("phone = $%d", len(args)))
	}
	if upd.Email != "" {
		args = append(args, upd.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+userColumns,
		args...,
	)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, upd.Email)
		}
		return nil, err
	}
	return u, nil
}

// SetRefreshTokenHash сохраняет хеш refresh-токена пользователя. Пустая строка сбрасывает сессию.
func (r *PostgresRepository) SetRefreshTokenHash(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash возвращает сохранённый хеш refresh-токена пользователя.
func (r *PostgresRepository) GetRefreshTokenHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx,
		`SELECT refresh_token_hash FROM users WHERE id = $1`, id,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	return hash, nil
}

// SetUserBanned выставляет флаг блокировки пользователя.
func (r *PostgresRepository) SetUserBanned(ctx context.Context, id int64, banned bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_banned = $2, updated_at = NOW() WHERE id = $1`,
		id, banned,
	)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser удаляет пользователя. Корзина, заказы, отзывы и заявки удаляются каскадно.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UserFilter описывает фильтры списка пользователей для админки.
type UserFilter struct {
	Role             model.Role
	WholesalerStatus model.WholesalerStatus
	Banned           *bool
	Search           string
	Page             int
	Limit            int
}

// ListUsers возвращает страницу пользователей без админов и общее количество.
func (r *PostgresRepository) ListUsers(ctx context.Context, f UserFilter) ([]model.User, int64, error) {
	where := []string{`NOT ('admin' = ANY(roles))`}
	args := []any{}

	if f.Role != "" {
		args = append(args, string(f.Role))
		where = append(where, fmt.Sprintf(`$%d = ANY(roles)`, len(args)))
	}
	if f.WholesalerStatus != "" {
		args = append(args, string(f.WholesalerStatus))
		where = append(where, fmt.Sprintf(`wholesaler_status = $%d`, len(args)))
	}
	if f.Banned != nil {
		args = append(args, *f.Banned)
		where = append(where, fmt.Sprintf(`is_banned = $%d`, len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(`(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)`, n, n, n))
	}

	cond := strings.Join(where, " AND ")

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE `+cond, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+cond+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return users, total, nil
}
