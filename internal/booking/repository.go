package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

type Repository interface {
	SlotReader

	// Create inserts b as a new booking. Implementations must reject the insert
	// with ErrTimeConflict if an active booking of the same court overlaps it.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// ListStalePending returns pending bookings created before the given instant.
	ListStalePending(ctx context.Context, createdBefore time.Time) ([]*Booking, error)
	// ListConfirmedUntil returns confirmed bookings dated on or before date.
	ListConfirmedUntil(ctx context.Context, date timewindow.Date) ([]*Booking, error)

	// UpdateStatus moves the booking from one status to another only if it is
	// still in from. It returns ErrStatusChanged when another writer got there first.
	UpdateStatus(ctx context.Context, id string, from, to Status, reason *string) (*Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error
	MarkConfirmationSent(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var bookingColumns = []string{
	"b.id", "b.court_id", "c.name", "b.renter_id", "b.owner_id",
	"b.booking_date", "b.start_minute", "b.end_minute",
	"b.duration_hours", "b.total_price", "b.payment_method", "b.payment_status",
	"b.status", "b.cancellation_reason", "b.is_reviewed", "b.email_confirmation_sent",
	"b.created_at", "b.updated_at",
}

var activeStatuses = []string{string(StatusPending), string(StatusConfirmed)}

func selectBookings() squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id")
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var (
		b    Booking
		date time.Time
	)
	dest := []any{
		&b.ID, &b.CourtID, &b.CourtName, &b.RenterID, &b.OwnerID,
		&date, &b.Slot.Start, &b.Slot.End,
		&b.DurationHours, &b.TotalPrice, &b.PaymentMethod, &b.PaymentStatus,
		&b.Status, &b.CancellationReason, &b.IsReviewed, &b.EmailConfirmationSent,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.Date = timewindow.DateOf(date.UTC())
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*Booking, error) {
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serializes writers on the same court and day across processes.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", slotKey(b.CourtID, b.Date)); err != nil {
		return fmt.Errorf("acquire slot lock failed: %w", err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sub, args, err := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"court_id": b.CourtID}).
		Where(squirrel.Eq{"booking_date": b.Date.Time()}).
		Where(squirrel.Eq{"status": activeStatuses}).
		Where(squirrel.Lt{"start_minute": b.Slot.End}).
		Where(squirrel.Gt{"end_minute": b.Slot.Start}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build check overlap query failed: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return fmt.Errorf("check overlap failed: %w", err)
	}
	if exists {
		return ErrTimeConflict
	}

	query, args, err := psql.Insert("public.bookings").
		Columns(
			"court_id", "renter_id", "owner_id", "booking_date", "start_minute", "end_minute",
			"duration_hours", "total_price", "payment_method", "payment_status", "status",
		).
		Values(
			b.CourtID, b.RenterID, b.OwnerID, b.Date.Time(), b.Slot.Start, b.Slot.End,
			b.DurationHours, b.TotalPrice, b.PaymentMethod, b.PaymentStatus, b.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return ErrTimeConflict
		}
		return fmt.Errorf("create booking failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create booking tx failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(bookingColumns, "count(*) OVER() AS total_count")...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id")

	if filter.CourtID != "" {
		query = query.Where(squirrel.Eq{"b.court_id": filter.CourtID})
	}
	if filter.RenterID != "" {
		query = query.Where(squirrel.Eq{"b.renter_id": filter.RenterID})
	}
	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"b.owner_id": filter.OwnerID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if filter.DateFrom != nil {
		query = query.Where(squirrel.GtOrEq{"b.booking_date": filter.DateFrom.Time()})
	}
	if filter.DateTo != nil {
		query = query.Where(squirrel.LtOrEq{"b.booking_date": filter.DateTo.Time()})
	}

	// Sorting
	orderBy := "b.booking_date"
	if filter.SortBy != "" {
		orderBy = "b." + filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy+" "+orderDir, "b.start_minute "+orderDir)

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
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var (
		bookings []*Booking
		total    int
	)
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, total, nil
}

func (r *pgxRepository) ListActiveForSlot(ctx context.Context, courtID string, date timewindow.Date) ([]*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.court_id": courtID}).
		Where(squirrel.Eq{"b.booking_date": date.Time()}).
		Where(squirrel.Eq{"b.status": activeStatuses}).
		OrderBy("b.start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active bookings failed: %w", err)
	}
	return collectBookings(rows)
}

func (r *pgxRepository) ListStalePending(ctx context.Context, createdBefore time.Time) ([]*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.status": string(StatusPending)}).
		Where(squirrel.Lt{"b.created_at": createdBefore}).
		OrderBy("b.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list stale bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stale bookings failed: %w", err)
	}
	return collectBookings(rows)
}

func (r *pgxRepository) ListConfirmedUntil(ctx context.Context, date timewindow.Date) ([]*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.status": string(StatusConfirmed)}).
		Where(squirrel.LtOrEq{"b.booking_date": date.Time()}).
		OrderBy("b.booking_date ASC", "b.end_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list confirmed bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings failed: %w", err)
	}
	return collectBookings(rows)
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from, to Status, reason *string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	update := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from})
	if reason != nil {
		update = update.Set("cancellation_reason", *reason)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update booking status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update booking status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// Distinguish a missing row from a lost race.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStatusChanged
	}
	return r.GetByID(ctx, id)
}

func (r *pgxRepository) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("payment_status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": []string{string(StatusRejected), string(StatusCancelled)}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update payment status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update payment status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrPaymentLocked
	}
	return nil
}

// MarkReviewedTx flips is_reviewed once inside the caller's transaction.
// A booking that is missing or already reviewed returns ErrAlreadyReviewed
// and the caller is expected to roll back.
func MarkReviewedTx(ctx context.Context, tx pgx.Tx, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("is_reviewed", true).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "is_reviewed": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark reviewed query failed: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark booking reviewed failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}

func (r *pgxRepository) MarkConfirmationSent(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("email_confirmation_sent", true).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark confirmation sent query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark confirmation sent failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
