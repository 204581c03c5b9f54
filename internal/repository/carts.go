package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

// AddCartItem добавляет позицию в корзину пользователя. Корзина создаётся лениво,
// повторное добавление той же открытки атомарно увеличивает количество.
func (r *PostgresRepository) AddCartItem(ctx context.Context, userID, cardID, quantity int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var exists bool
		err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE id = $1)`, cardID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check card: %w", err)
		}
		if !exists {
			return ErrCardNotFound
		}

		var cartID int64
		err = tx.QueryRow(ctx,
			`INSERT INTO carts (user_id) VALUES ($1)
			 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
			 RETURNING id`,
			userID,
		).Scan(&cartID)
		if err != nil {
			return fmt.Errorf("upsert cart: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO cart_lines (cart_id, card_id, quantity) VALUES ($1, $2, $3)
			 ON CONFLICT (cart_id, card_id)
			 DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`,
			cartID, cardID, quantity,
		)
		if err != nil {
			return fmt.Errorf("upsert cart line: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// RemoveCartItem удаляет позицию из корзины пользователя.
func (r *PostgresRepository) RemoveCartItem(ctx context.Context, userID, cardID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_lines
		 USING carts
		 WHERE cart_lines.cart_id = carts.id AND carts.user_id = $1 AND cart_lines.card_id = $2`,
		userID, cardID,
	)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

// SetCartItemQuantity выставляет количество у существующей позиции корзины.
func (r *PostgresRepository) SetCartItemQuantity(ctx context.Context, userID, cardID, quantity int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_lines SET quantity = $3
		 FROM carts
		 WHERE cart_lines.cart_id = carts.id AND carts.user_id = $1 AND cart_lines.card_id = $2`,
		userID, cardID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

// GetCart возвращает корзину пользователя с актуальными данными открыток.
// Отсутствие корзины — не ошибка: возвращается пустая корзина.
func (r *PostgresRepository) GetCart(ctx context.Context, userID int64) (*model.Cart, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT cl.card_id, c.name, c.category, c.price, c.discount, c.primary_image, cl.quantity
		 FROM cart_lines cl
		 JOIN carts ON carts.id = cl.cart_id
		 JOIN cards c ON c.id = cl.card_id
		 WHERE carts.user_id = $1
		 ORDER BY cl.card_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	defer rows.Close()

	cart := &model.Cart{UserID: userID}
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.CardID, &l.Name, &l.Category, &l.Price, &l.Discount, &l.Image, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cart, nil
}

// ClearCart удаляет корзину пользователя целиком.
func (r *PostgresRepository) ClearCart(ctx context.Context, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}
