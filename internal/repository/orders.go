package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

const orderColumns = `id, order_uid, user_id, status, total_amount, discount, tax, shipping_fee,
	final_amount, payment_method, payment_status, transaction_id, shipping_address,
	delivery_partner, tracking_id, placed_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UID, &o.UserID, &o.Status, &o.TotalAmount, &o.Discount, &o.Tax, &o.ShippingFee,
		&o.FinalAmount, &o.PaymentMethod, &o.PaymentStatus, &o.TransactionID, &o.ShippingAddress,
		&o.DeliveryPartner, &o.TrackingID, &o.PlacedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

// CreateOrder сохраняет заказ вместе с позициями и первой записью журнала
// статусов в одной транзакции. Идентификатор записывается в o.ID.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (order_uid, user_id, status, total_amount, discount, tax,
			shipping_fee, final_amount, payment_method, payment_status, shipping_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, placed_at`,
		o.UID, o.UserID, string(o.Status), o.TotalAmount, o.Discount, o.Tax,
		o.ShippingFee, o.FinalAmount, string(o.PaymentMethod), string(o.PaymentStatus), o.ShippingAddress,
	).Scan(&o.ID, &o.PlacedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (order_id, card_id, name, category, price, discount, quantity, image)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, it.CardID, it.Name, string(it.Category), it.Price, it.Discount, it.Quantity, it.Image,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	var changedAt = o.PlacedAt
	_, err = tx.Exec(ctx,
		`INSERT INTO order_status_history (order_id, status, changed_at) VALUES ($1, $2, $3)`,
		o.ID, string(o.Status), changedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	o.StatusHistory = []model.StatusChange{{Status: o.Status, ChangedAt: changedAt}}
	return nil
}

func (r *PostgresRepository) loadOrderDetails(ctx context.Context, orders []model.Order) error {
	for i := range orders {
		o := &orders[i]

		rows, err := r.pool.Query(ctx,
			`SELECT card_id, name, category, price, discount, quantity, image
			 FROM order_items WHERE order_id = $1 ORDER BY id`,
			o.ID,
		)
		if err != nil {
			return fmt.Errorf("select order items: %w", err)
		}
		for rows.Next() {
			var it model.OrderItem
			if err := rows.Scan(&it.CardID, &it.Name, &it.Category, &it.Price, &it.Discount, &it.Quantity, &it.Image); err != nil {
				rows.Close()
				return fmt.Errorf("scan order item: %w", err)
			}
			o.Items = append(o.Items, it)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		rows, err = r.pool.Query(ctx,
			`SELECT status, changed_at FROM order_status_history WHERE order_id = $1 ORDER BY id`,
			o.ID,
		)
		if err != nil {
			return fmt.Errorf("select status history: %w", err)
		}
		for rows.Next() {
			var ch model.StatusChange
			if err := rows.Scan(&ch.Status, &ch.ChangedAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan status change: %w", err)
			}
			o.StatusHistory = append(o.StatusHistory, ch)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
	}
	return nil
}

// GetOrderByID возвращает заказ с позициями и журналом статусов.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	orders := []model.Order{*o}
	if err := r.loadOrderDetails(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY placed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := r.loadOrderDetails(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrders возвращает все заказы для админки, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY placed_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := r.loadOrderDetails(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// allowedTransition реализует машину статусов заказа. Возврат допускается из
// любого статуса, отмена — только из pending.
func allowedTransition(from, to model.OrderStatus) bool {
	switch to {
	case model.OrderStatusConfirmed:
		return from == model.OrderStatusPending
	case model.OrderStatusShipped:
		return from == model.OrderStatusConfirmed
	case model.OrderStatusDelivered:
		return from == model.OrderStatusShipped
	case model.OrderStatusCancelled:
		return from == model.OrderStatusPending
	case model.OrderStatusReturned:
		return true
	}
	return false
}

// transitionOrder выполняет смену статуса и добавление записи журнала как одну
// транзакцию. Строка заказа блокируется, чтобы параллельные переходы не
// потеряли запись журнала.
func (r *PostgresRepository) transitionOrder(ctx context.Context, orderID int64, to model.OrderStatus, check func(userID int64, from model.OrderStatus) error) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var (
			ownerID int64
			from    model.OrderStatus
		)
		err = tx.QueryRow(ctx,
			`SELECT user_id, status FROM orders WHERE id = $1 FOR UPDATE`, orderID,
		).Scan(&ownerID, &from)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if check != nil {
			if err := check(ownerID, from); err != nil {
				return err
			}
		}

		if !allowedTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}

		_, err = tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, string(to))
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO order_status_history (order_id, status) VALUES ($1, $2)`,
			orderID, string(to),
		)
		if err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// CancelOrder отменяет заказ по запросу владельца. Разрешено только из pending.
func (r *PostgresRepository) CancelOrder(ctx context.Context, orderID, userID int64) error {
	return r.transitionOrder(ctx, orderID, model.OrderStatusCancelled, func(ownerID int64, from model.OrderStatus) error {
		if ownerID != userID {
			return ErrOrderNotOwned
		}
		if from != model.OrderStatusPending {
			return ErrOrderNotPending
		}
		return nil
	})
}

// UpdateOrderStatus выполняет админскую смену статуса заказа.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID int64, to model.OrderStatus) error {
	return r.transitionOrder(ctx, orderID, to, nil)
}

// UpdatePaymentStatus обновляет состояние оплаты. Журнал статусов не трогается.
func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus, transactionID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $2,
			transaction_id = CASE WHEN $3 <> '' THEN $3 ELSE transaction_id END
		 WHERE id = $1`,
		orderID, string(status), transactionID,
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// AttachTracking сохраняет данные доставки. Журнал статусов не трогается.
func (r *PostgresRepository) AttachTracking(ctx context.Context, orderID int64, deliveryPartner, trackingID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET delivery_partner = $2, tracking_id = $3 WHERE id = $1`,
		orderID, deliveryPartner, trackingID,
	)
	if err != nil {
		return fmt.Errorf("attach tracking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// DeleteOrder удаляет заказ вместе с позициями и журналом.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, orderID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
