package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

const cardColumns = `id, name, category, description, price, discount, wholesale_price,
	available_for_wholesale, stock, rating, reviews_count, is_popular, is_trending,
	primary_image, secondary_image, specifications, created_at, updated_at`

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	err := row.Scan(
		&c.ID, &c.Name, &c.Category, &c.Description, &c.Price, &c.Discount, &c.WholesalePrice,
		&c.AvailableForWholesale, &c.Stock, &c.Rating, &c.ReviewsCount, &c.Popular, &c.Trending,
		&c.PrimaryImage, &c.SecondaryImage, &c.Specifications, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("scan card: %w", err)
	}
	return &c, nil
}

// CreateCard добавляет открытку в каталог и возвращает её идентификатор.
func (r *PostgresRepository) CreateCard(ctx context.Context, c *model.Card) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cards (name, category, description, price, discount, wholesale_price,
			available_for_wholesale, stock, rating, reviews_count, is_popular, is_trending,
			primary_image, secondary_image, specifications)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		c.Name, string(c.Category), c.Description, c.Price, c.Discount, c.WholesalePrice,
		c.AvailableForWholesale, c.Stock, c.Rating, c.ReviewsCount, c.Popular, c.Trending,
		c.PrimaryImage, c.SecondaryImage, c.Specifications,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create card: %w", err)
	}
	return id, nil
}

// GetCard возвращает открытку по идентификатору.
func (r *PostgresRepository) GetCard(ctx context.Context, id int64) (*model.Card, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	return scanCard(row)
}

// UpdateCard перезаписывает поля открытки.
func (r *PostgresRepository) UpdateCard(ctx context.Context, c *model.Card) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cards SET name = $2, category = $3, description = $4, price = $5, discount = $6,
			wholesale_price = $7, available_for_wholesale = $8, stock = $9,
			is_popular = $10, is_trending = $11, primary_image = $12, secondary_image = $13,
			specifications = $14, updated_at = NOW()
		 WHERE id = $1`,
		c.ID, c.Name, string(c.Category), c.Description, c.Price, c.Discount,
		c.WholesalePrice, c.AvailableForWholesale, c.Stock,
		c.Popular, c.Trending, c.PrimaryImage, c.SecondaryImage, c.Specifications,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// UpdateCardRating обновляет рейтинг и счётчик отзывов открытки.
func (r *PostgresRepository) UpdateCardRating(ctx context.Context, id int64, rating float64, reviewsCount int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cards SET rating = $2, reviews_count = $3, updated_at = NOW() WHERE id = $1`,
		id, rating, reviewsCount,
	)
	if err != nil {
		return fmt.Errorf("update card rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// DeleteCard удаляет открытку из каталога.
func (r *PostgresRepository) DeleteCard(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// CardFilter описывает фильтры и сортировку списка каталога.
type CardFilter struct {
	Category  model.CardCategory
	MinPrice  *int64
	MaxPrice  *int64
	Popular   *bool
	Trending  *bool
	Wholesale *bool
	Search    string
	Sort      string
	Page      int
	Limit     int
}

// Допустимые значения сортировки каталога.
const (
	SortPriceAsc     = "price-asc"
	SortPriceDesc    = "price-desc"
	SortRatingDesc   = "rating-desc"
	SortDiscountDesc = "discount-desc"
)

func orderClause(sort string) string {
	switch sort {
	case SortPriceAsc:
		return `ORDER BY price ASC`
	case SortPriceDesc:
		return `ORDER BY price DESC`
	case SortRatingDesc:
		return `ORDER BY rating DESC`
	case SortDiscountDesc:
		return `ORDER BY discount DESC`
	default:
		return `ORDER BY created_at DESC`
	}
}

// ListCards возвращает страницу каталога по фильтру и общее количество совпадений.
func (r *PostgresRepository) ListCards(ctx context.Context, f CardFilter) ([]model.Card, int64, error) {
	where := []string{`TRUE`}
	args := []any{}

	if f.Category != "" {
		args = append(args, string(f.Category))
		where = append(where, fmt.Sprintf(`category = $%d`, len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		where = append(where, fmt.Sprintf(`price >= $%d`, len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		where = append(where, fmt.Sprintf(`price <= $%d`, len(args)))
	}
	if f.Popular != nil {
		args = append(args, *f.Popular)
		where = append(where, fmt.Sprintf(`is_popular = $%d`, len(args)))
	}
	if f.Trending != nil {
		args = append(args, *f.Trending)
		where = append(where, fmt.Sprintf(`is_trending = $%d`, len(args)))
	}
	if f.Wholesale != nil {
		args = append(args, *f.Wholesale)
		where = append(where, fmt.Sprintf(`available_for_wholesale = $%d`, len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			`(name ILIKE $%d OR category ILIKE $%d OR description ILIKE $%d OR specifications::text ILIKE $%d)`,
			n, n, n, n))
	}

	cond := strings.Join(where, " AND ")

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE `+cond, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count cards: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE `+cond+` `+orderClause(f.Sort)+
			fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		cards = append(cards, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return cards, total, nil
}
