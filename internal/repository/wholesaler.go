package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

const applicationColumns = `id, user_id, email, business_name, owner_name, gst_number,
	business_address, contact_number, status, applied_at, reviewed_at`

func scanApplication(row pgx.Row) (*model.WholesalerApplication, error) {
	var a model.WholesalerApplication
	err := row.Scan(
		&a.ID, &a.UserID, &a.Email, &a.BusinessName, &a.OwnerName, &a.GSTNumber,
		&a.BusinessAddress, &a.ContactNumber, &a.Status, &a.AppliedAt, &a.ReviewedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	return &a, nil
}

// CreateApplication сохраняет заявку на оптовый доступ и переводит статус
// пользователя в pending. Вторая заявка на рассмотрении отклоняется на уровне
// частичного уникального индекса.
func (r *PostgresRepository) CreateApplication(ctx context.Context, a *model.WholesalerApplication) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO wholesaler_applications
			(user_id, email, business_name, owner_name, gst_number, business_address, contact_number)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, status, applied_at`,
		a.UserID, a.Email, a.BusinessName, a.OwnerName, a.GSTNumber, a.BusinessAddress, a.ContactNumber,
	).Scan(&a.ID, &a.Status, &a.AppliedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrApplicationPending
		}
		return fmt.Errorf("insert application: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET wholesaler_status = $2, updated_at = NOW() WHERE id = $1`,
		a.UserID, string(model.WholesalerStatusPending),
	)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetApplicationByUser возвращает последнюю заявку пользователя.
func (r *PostgresRepository) GetApplicationByUser(ctx context.Context, userID int64) (*model.WholesalerApplication, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM wholesaler_applications
		 WHERE user_id = $1 ORDER BY applied_at DESC LIMIT 1`,
		userID,
	)
	return scanApplication(row)
}

// LatestDeclinedApplication возвращает последнюю отклонённую заявку пользователя.
func (r *PostgresRepository) LatestDeclinedApplication(ctx context.Context, userID int64) (*model.WholesalerApplication, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM wholesaler_applications
		 WHERE user_id = $1 AND status = $2
		 ORDER BY reviewed_at DESC NULLS LAST LIMIT 1`,
		userID, string(model.WholesalerStatusDeclined),
	)
	return scanApplication(row)
}

// ListApplications возвращает заявки, при необходимости отфильтрованные по статусу.
func (r *PostgresRepository) ListApplications(ctx context.Context, status model.WholesalerStatus) ([]model.WholesalerApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM wholesaler_applications`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY applied_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select applications: %w", err)
	}
	defer rows.Close()

	var apps []model.WholesalerApplication
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return apps, nil
}

// ReviewApplication фиксирует решение по заявке и синхронно обновляет статус
// пользователя. При одобрении пользователю добавляется роль wholesaler.
func (r *PostgresRepository) ReviewApplication(ctx context.Context, appID int64, approve bool, reviewedAt time.Time) (*model.WholesalerApplication, error) {
	status := model.WholesalerStatusDeclined
	if approve {
		status = model.WholesalerStatusApproved
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`UPDATE wholesaler_applications SET status = $2, reviewed_at = $3
		 WHERE id = $1 AND status = $4
		 RETURNING `+applicationColumns,
		appID, string(status), reviewedAt, string(model.WholesalerStatusPending),
	)
	a, err := scanApplication(row)
	if err != nil {
		return nil, err
	}

	if approve {
		_, err = tx.Exec(ctx,
			`UPDATE users SET wholesaler_status = $2,
				roles = CASE WHEN $3 = ANY(roles) THEN roles ELSE array_append(roles, $3) END,
				updated_at = NOW()
			 WHERE id = $1`,
			a.UserID, string(status), string(model.RoleWholesaler),
		)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE users SET wholesaler_status = $2, updated_at = NOW() WHERE id = $1`,
			a.UserID, string(status),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("update user status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return a, nil
}
