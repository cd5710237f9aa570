package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, client_id, talent_id, total_price, services_snapshot, status, scheduled_at,
	notes, admin_notes, created_at, updated_at`

type BookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, b *domain.Booking) error {
	snapshot, err := json.Marshal(b.ServicesSnapshot)
	if err != nil {
		return err
	}
	return tx.QueryRow(ctx, `
		INSERT INTO bookings (client_id, talent_id, total_price, services_snapshot, status, scheduled_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, b.ClientID, b.TalentID, b.TotalPrice, snapshot, b.Status, b.ScheduledAt, b.Notes,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// LockWithTx reads and locks a booking row
func (r *BookingRepository) LockWithTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

// TransitionWithTx moves a booking from one status to another.
// ErrConditionFailed means the booking was no longer in `from`.
func (r *BookingRepository) TransitionWithTx(ctx context.Context, q Querier, id string, from []domain.BookingStatus, to domain.BookingStatus, notes *string) error {
	fromStr := make([]string, len(from))
	for i, s := range from {
		fromStr[i] = string(s)
	}
	tag, err := q.Exec(ctx, `
		UPDATE bookings SET status = $3, notes = COALESCE($4, notes), updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)
	`, id, fromStr, to, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

// Transition is TransitionWithTx on the pool
func (r *BookingRepository) Transition(ctx context.Context, id string, from []domain.BookingStatus, to domain.BookingStatus) error {
	return r.TransitionWithTx(ctx, r.db, id, from, to, nil)
}

// ListForClient returns the client's bookings, newest first
func (r *BookingRepository) ListForClient(ctx context.Context, clientID string, limit int) ([]*domain.Booking, error) {
	return r.list(ctx, `WHERE client_id = $1`, clientID, limit)
}

// ListForTalent returns bookings made with the talent, newest first
func (r *BookingRepository) ListForTalent(ctx context.Context, talentID string, limit int) ([]*domain.Booking, error) {
	return r.list(ctx, `WHERE talent_id = $1`, talentID, limit)
}

// ListByStatus is the admin view
func (r *BookingRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*domain.Booking, error) {
	return r.list(ctx, `WHERE ($1 = '' OR status = $1)`, status, limit)
}

// ListStale returns ids of bookings sitting in status since before cutoff.
// Bookings with a verification awaiting review are left alone.
func (r *BookingRepository) ListStale(ctx context.Context, status domain.BookingStatus, cutoff time.Time, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b.id FROM bookings b
		WHERE b.status = $1 AND b.updated_at < $2
		  AND NOT EXISTS (SELECT 1 FROM verifications v WHERE v.booking_id = b.id AND v.status = 'pending')
		ORDER BY b.updated_at
		LIMIT $3
	`, status, cutoff, clampLimit(limit, 100, 500))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *BookingRepository) list(ctx context.Context, where, arg string, limit int) ([]*domain.Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings `+where+`
		ORDER BY created_at DESC
		LIMIT $2
	`, arg, clampLimit(limit, 50, 200))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b        domain.Booking
		snapshot []byte
	)
	if err := row.Scan(
		&b.ID, &b.ClientID, &b.TalentID, &b.TotalPrice, &snapshot, &b.Status, &b.ScheduledAt,
		&b.Notes, &b.AdminNotes, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(snapshot) > 0 {
		_ = json.Unmarshal(snapshot, &b.ServicesSnapshot)
	}
	return &b, nil
}
