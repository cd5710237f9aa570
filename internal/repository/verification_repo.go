package repository

import (
	"context"
	"errors"
	"time"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const verificationColumns = `id, booking_id, selfie_url, full_name, phone, gps_coords, status, admin_notes,
	reviewed_by, reviewed_at, created_at, updated_at`

type VerificationRepository struct {
	db *pgxpool.Pool
}

func NewVerificationRepository(db *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// UpsertWithTx creates the booking's verification or resets it to pending
// with the new details (a client may resubmit).
func (r *VerificationRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, v *domain.Verification) error {
	return tx.QueryRow(ctx, `
		INSERT INTO verifications (booking_id, selfie_url, full_name, phone, gps_coords, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		ON CONFLICT (booking_id) DO UPDATE SET
			selfie_url = EXCLUDED.selfie_url,
			full_name  = EXCLUDED.full_name,
			phone      = EXCLUDED.phone,
			gps_coords = EXCLUDED.gps_coords,
			status     = 'pending',
			admin_notes = NULL,
			reviewed_by = NULL,
			reviewed_at = NULL,
			updated_at = NOW()
		RETURNING `+verificationColumns,
		v.BookingID, v.SelfieURL, v.FullName, v.Phone, v.GPSCoords,
	).Scan(
		&v.ID, &v.BookingID, &v.SelfieURL, &v.FullName, &v.Phone, &v.GPSCoords, &v.Status, &v.AdminNotes,
		&v.ReviewedBy, &v.ReviewedAt, &v.CreatedAt, &v.UpdatedAt,
	)
}

func (r *VerificationRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Verification, error) {
	return scanVerification(r.db.QueryRow(ctx, `SELECT `+verificationColumns+` FROM verifications WHERE booking_id = $1`, bookingID))
}

func (r *VerificationRepository) GetByBookingIDWithTx(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Verification, error) {
	return scanVerification(tx.QueryRow(ctx, `
		SELECT `+verificationColumns+` FROM verifications WHERE booking_id = $1 FOR UPDATE
	`, bookingID))
}

// ReviewWithTx records an admin decision on a pending verification
func (r *VerificationRepository) ReviewWithTx(ctx context.Context, tx pgx.Tx, bookingID string, status domain.VerificationStatus, adminID string, notes *string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE verifications
		SET status = $2, reviewed_by = $3, admin_notes = COALESCE($4, admin_notes), reviewed_at = $5, updated_at = NOW()
		WHERE booking_id = $1 AND status = 'pending'
	`, bookingID, status, adminID, notes, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

// ListByStatus returns verifications oldest first so the queue is FIFO
func (r *VerificationRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus, limit int) ([]*domain.Verification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+verificationColumns+` FROM verifications
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, status, clampLimit(limit, 50, 200))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func scanVerification(row pgx.Row) (*domain.Verification, error) {
	var v domain.Verification
	if err := row.Scan(
		&v.ID, &v.BookingID, &v.SelfieURL, &v.FullName, &v.Phone, &v.GPSCoords, &v.Status, &v.AdminNotes,
		&v.ReviewedBy, &v.ReviewedAt, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
