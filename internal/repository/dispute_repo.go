package repository

import (
	"context"
	"errors"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const disputeColumns = `id, booking_id, raised_by, reason, description, status, resolution, resolution_notes,
	resolved_by, resolved_at, previous_booking_status, created_at, updated_at`

type DisputeRepository struct {
	db *pgxpool.Pool
}

func NewDisputeRepository(db *pgxpool.Pool) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, d *domain.Dispute) error {
	return tx.QueryRow(ctx, `
		INSERT INTO disputes (booking_id, raised_by, reason, description, previous_booking_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at, updated_at
	`, d.BookingID, d.RaisedBy, d.Reason, d.Description, statusText(d.PreviousStatus)).Scan(&d.ID, &d.Status, &d.CreatedAt, &d.UpdatedAt)
}

func (r *DisputeRepository) GetByID(ctx context.Context, id string) (*domain.Dispute, error) {
	return scanDispute(r.db.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id))
}

func (r *DisputeRepository) LockWithTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Dispute, error) {
	return scanDispute(tx.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id))
}

// HasOpen reports whether the booking already has an unresolved dispute
func (r *DisputeRepository) HasOpen(ctx context.Context, q Querier, bookingID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM disputes WHERE booking_id = $1 AND status IN ('open', 'under_review'))
	`, bookingID).Scan(&exists)
	return exists, err
}

// UpdateWithTx writes status and resolution fields as set on d
func (r *DisputeRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, d *domain.Dispute) error {
	return tx.QueryRow(ctx, `
		UPDATE disputes
		SET status = $2, resolution = $3, resolution_notes = $4, resolved_by = $5, resolved_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, d.ID, d.Status, d.Resolution, d.ResolutionNotes, d.ResolvedBy, d.ResolvedAt).Scan(&d.UpdatedAt)
}

// List returns disputes filtered by status (empty = all), newest first.
// userID, when set, limits to disputes on bookings the user takes part in.
func (r *DisputeRepository) List(ctx context.Context, status, userID string, limit int) ([]*domain.Dispute, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.`+disputeColumnsPrefixed+`
		FROM disputes d
		JOIN bookings b ON b.id = d.booking_id
		WHERE ($1 = '' OR d.status = $1)
		  AND ($2 = '' OR b.client_id::text = $2 OR b.talent_id::text = $2)
		ORDER BY d.created_at DESC
		LIMIT $3
	`, status, userID, clampLimit(limit, 50, 200))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

const disputeColumnsPrefixed = `id, d.booking_id, d.raised_by, d.reason, d.description, d.status, d.resolution,
	d.resolution_notes, d.resolved_by, d.resolved_at, d.previous_booking_status, d.created_at, d.updated_at`

func scanDispute(row pgx.Row) (*domain.Dispute, error) {
	var (
		d    domain.Dispute
		prev *string
	)
	if err := row.Scan(
		&d.ID, &d.BookingID, &d.RaisedBy, &d.Reason, &d.Description, &d.Status, &d.Resolution, &d.ResolutionNotes,
		&d.ResolvedBy, &d.ResolvedAt, &prev, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if prev != nil {
		st := domain.BookingStatus(*prev)
		d.PreviousStatus = &st
	}
	return &d, nil
}

func statusText(st *domain.BookingStatus) *string {
	if st == nil {
		return nil
	}
	s := string(*st)
	return &s
}
