package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

const reviewColumns = `r.id, r.card_id, r.user_id, u.name, r.rating, r.comment, r.created_at, r.updated_at`

func scanReview(row pgx.Row) (*model.Review, error) {
	var rev model.Review
	err := row.Scan(&rev.ID, &rev.CardID, &rev.UserID, &rev.UserName, &rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &rev, nil
}

// recalcCardRating пересчитывает средний рейтинг и число отзывов открытки
// по таблице отзывов. Вызывается внутри транзакции изменения отзыва.
func recalcCardRating(ctx context.Context, tx pgx.Tx, cardID int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE cards SET
			rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE card_id = $1), 0),
			reviews_count = (SELECT COUNT(*) FROM reviews WHERE card_id = $1),
			updated_at = NOW()
		 WHERE id = $1`,
		cardID,
	)
	if err != nil {
		return fmt.Errorf("recalc card rating: %w", err)
	}
	return nil
}

// CreateReview сохраняет отзыв и пересчитывает рейтинг открытки в одной
// транзакции. Идентификатор и время создания записываются в rev.
func (r *PostgresRepository) CreateReview(ctx context.Context, rev *model.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO reviews (card_id, user_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		rev.CardID, rev.UserID, rev.Rating, rev.Comment,
	).Scan(&rev.ID, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrReviewExists
		}
		if isForeignKeyViolation(err) {
			return ErrCardNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}

	if err := recalcCardRating(ctx, tx, rev.CardID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateReview изменяет оценку и текст отзыва и пересчитывает рейтинг открытки.
func (r *PostgresRepository) UpdateReview(ctx context.Context, id int64, rating int, comment string) (*model.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var cardID int64
	err = tx.QueryRow(ctx,
		`UPDATE reviews SET rating = $2, comment = $3, updated_at = NOW()
		 WHERE id = $1 RETURNING card_id`,
		id, rating, comment,
	).Scan(&cardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	if err := recalcCardRating(ctx, tx, cardID); err != nil {
		return nil, err
	}

	rev, err := scanReview(tx.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id = $1`, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return rev, nil
}

// DeleteReview удаляет отзыв и пересчитывает рейтинг открытки.
func (r *PostgresRepository) DeleteReview(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var cardID int64
	err = tx.QueryRow(ctx,
		`DELETE FROM reviews WHERE id = $1 RETURNING card_id`, id,
	).Scan(&cardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}

	if err := recalcCardRating(ctx, tx, cardID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetReview возвращает отзыв по идентификатору вместе с именем автора.
func (r *PostgresRepository) GetReview(ctx context.Context, id int64) (*model.Review, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id = $1`, id)
	return scanReview(row)
}

// ListCardReviews возвращает отзывы на открытку, новые первыми.
func (r *PostgresRepository) ListCardReviews(ctx context.Context, cardID int64) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews r JOIN users u ON u.id = r.user_id
		 WHERE r.card_id = $1 ORDER BY r.created_at DESC`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("select reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return reviews, nil
}

// ListReviews возвращает страницу всех отзывов для админки и общее количество.
func (r *PostgresRepository) ListReviews(ctx context.Context, page, limit int) ([]model.Review, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews r JOIN users u ON u.id = r.user_id
		 ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, *rev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return reviews, total, nil
}
