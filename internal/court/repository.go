package court

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/court-booking-engine/internal/rating"
)

// Repository defines data access methods for courts. Ratings are written
// through RatingTx, inside the transaction that accepts a review.
type Repository interface {
	Create(ctx context.Context, c *Court) error
	GetByID(ctx context.Context, id string) (*Court, error)
	List(ctx context.Context, filter Filter) ([]*Court, int, error)
	Update(ctx context.Context, c *Court) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var courtColumns = []string{
	"id", "owner_id", "name", "description", "hourly_price", "is_active",
	"operating_hours", "rating", "review_count", "created_at", "updated_at",
}

func scanCourt(row pgx.Row, extra ...any) (*Court, error) {
	var (
		c     Court
		hours []byte
	)
	dest := []any{
		&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.HourlyPrice, &c.IsActive,
		&hours, &c.Rating, &c.ReviewCount, &c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	c.OperatingHours = WeeklyHours{}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &c.OperatingHours); err != nil {
			return nil, fmt.Errorf("decode operating hours failed: %w", err)
		}
	}
	return &c, nil
}

func (r *pgxRepository) Create(ctx context.Context, c *Court) error {
	hours, err := json.Marshal(c.OperatingHours)
	if err != nil {
		return fmt.Errorf("encode operating hours failed: %w", err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.courts").
		Columns("owner_id", "name", "description", "hourly_price", "is_active", "operating_hours").
		Values(c.OwnerID, c.Name, c.Description, c.HourlyPrice, c.IsActive, hours).
		Suffix("RETURNING id, rating, review_count, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create court query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.Rating, &c.ReviewCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create court failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Court, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(courtColumns...).
		From("public.courts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get court query failed: %w", err)
	}

	c, err := scanCourt(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get court failed: %w", err)
	}
	return c, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Court, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(courtColumns, "count(*) OVER() AS total_count")...).
		From("public.courts")

	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.Keyword != "" {
		query = query.Where(squirrel.ILike{"name": "%" + filter.Keyword + "%"})
	}

	// Sorting
	orderBy := "created_at"
	if filter.SortBy != "" {
		// Safe: the handler restricts SortBy to known columns
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list courts query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list courts failed: %w", err)
	}
	defer rows.Close()

	var (
		courts []*Court
		total  int
	)
	for rows.Next() {
		c, err := scanCourt(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan court failed: %w", err)
		}
		courts = append(courts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate courts failed: %w", err)
	}
	return courts, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, c *Court) error {
	hours, err := json.Marshal(c.OperatingHours)
	if err != nil {
		return fmt.Errorf("encode operating hours failed: %w", err)
	}

	// rating and review_count are owned by RatingTx and never written here.
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.courts").
		Set("name", c.Name).
		Set("description", c.Description).
		Set("hourly_price", c.HourlyPrice).
		Set("is_active", c.IsActive).
		Set("operating_hours", hours).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": c.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update court query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update court failed: %w", err)
	}
	return nil
}

// RatingTx is a rating.Store bound to a transaction owned by the caller.
// It locks the court row for the rest of that transaction, so concurrent
// reviews for the same court are applied one after another. It never commits.
type RatingTx struct {
	tx pgx.Tx
}

func NewRatingTx(tx pgx.Tx) *RatingTx {
	return &RatingTx{tx: tx}
}

func (s *RatingTx) UpdateRating(ctx context.Context, courtID string, fn func(rating.Summary) (rating.Summary, error)) (rating.Summary, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("rating", "review_count").
		From("public.courts").
		Where(squirrel.Eq{"id": courtID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return rating.Summary{}, fmt.Errorf("build lock court query failed: %w", err)
	}

	var cur rating.Summary
	if err := s.tx.QueryRow(ctx, query, args...).Scan(&cur.Mean, &cur.Count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rating.Summary{}, ErrNotFound
		}
		return rating.Summary{}, fmt.Errorf("lock court rating failed: %w", err)
	}

	next, err := fn(cur)
	if err != nil {
		return rating.Summary{}, err
	}

	update, args, err := psql.Update("public.courts").
		Set("rating", next.Mean).
		Set("review_count", next.Count).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": courtID}).
		ToSql()
	if err != nil {
		return rating.Summary{}, fmt.Errorf("build update rating query failed: %w", err)
	}
	if _, err := s.tx.Exec(ctx, update, args...); err != nil {
		return rating.Summary{}, fmt.Errorf("update court rating failed: %w", err)
	}
	return next, nil
}
