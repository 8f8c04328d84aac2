package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/court-booking-engine/internal/booking"
	"github.com/nekogravitycat/court-booking-engine/internal/court"
	"github.com/nekogravitycat/court-booking-engine/internal/rating"
)

// RatingFunc folds an accepted review into the court rating through store.
type RatingFunc func(store rating.Store) (rating.Summary, error)

type Repository interface {
	// CreateAccepted inserts rv, flags its booking as reviewed and applies the
	// score through apply, all in one transaction. If any step fails nothing is
	// kept, so the booking stays reviewable. A second review for the same
	// booking returns ErrAlreadyReviewed.
	CreateAccepted(ctx context.Context, rv *Review, apply RatingFunc) (rating.Summary, error)
	GetByID(ctx context.Context, id string) (*Review, error)
	List(ctx context.Context, filter Filter) ([]*Review, int, error)
	ExistsForBooking(ctx context.Context, bookingID string) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var reviewColumns = []string{"id", "court_id", "booking_id", "user_id", "rating", "comment", "created_at"}

func (r *pgxRepository) CreateAccepted(ctx context.Context, rv *Review, apply RatingFunc) (rating.Summary, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return rating.Summary{}, fmt.Errorf("begin create review tx failed: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.reviews").
		Columns("court_id", "booking_id", "user_id", "rating", "comment").
		Values(rv.CourtID, rv.BookingID, rv.UserID, rv.Rating, rv.Comment).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return rating.Summary{}, fmt.Errorf("build create review query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&rv.ID, &rv.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return rating.Summary{}, ErrAlreadyReviewed
		}
		return rating.Summary{}, fmt.Errorf("create review failed: %w", err)
	}

	if err := booking.MarkReviewedTx(ctx, tx, rv.BookingID); err != nil {
		if errors.Is(err, booking.ErrAlreadyReviewed) {
			return rating.Summary{}, ErrAlreadyReviewed
		}
		return rating.Summary{}, err
	}

	summary, err := apply(court.NewRatingTx(tx))
	if err != nil {
		return rating.Summary{}, fmt.Errorf("update court rating failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return rating.Summary{}, fmt.Errorf("commit create review tx failed: %w", err)
	}
	return summary, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Review, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(reviewColumns...).
		From("public.reviews").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get review query failed: %w", err)
	}

	var rv Review
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&rv.ID, &rv.CourtID, &rv.BookingID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review failed: %w", err)
	}
	return &rv, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Review, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(reviewColumns, "count(*) OVER() AS total_count")...).
		From("public.reviews")

	if filter.CourtID != "" {
		query = query.Where(squirrel.Eq{"court_id": filter.CourtID})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}

	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy("created_at " + orderDir)

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
		return nil, 0, fmt.Errorf("build list reviews query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews failed: %w", err)
	}
	defer rows.Close()

	var (
		reviews []*Review
		total   int
	)
	for rows.Next() {
		var rv Review
		if err := rows.Scan(
			&rv.ID, &rv.CourtID, &rv.BookingID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review failed: %w", err)
		}
		reviews = append(reviews, &rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews failed: %w", err)
	}
	return reviews, total, nil
}

func (r *pgxRepository) ExistsForBooking(ctx context.Context, bookingID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sub, args, err := psql.Select("1").
		From("public.reviews").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build review exists query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check review exists failed: %w", err)
	}
	return exists, nil
}
