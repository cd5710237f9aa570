package repository

import (
	"context"
	"time"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GiftRepository struct {
	db *pgxpool.Pool
}

func NewGiftRepository(db *pgxpool.Pool) *GiftRepository {
	return &GiftRepository{db: db}
}

func (r *GiftRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, g *domain.Gift) error {
	return tx.QueryRow(ctx, `
		INSERT INTO gifts (sender_id, recipient_id, amount, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, g.SenderID, g.RecipientID, g.Amount, g.Message).Scan(&g.ID, &g.CreatedAt)
}

// ListSent returns gifts the user has sent, newest first
func (r *GiftRepository) ListSent(ctx context.Context, userID string, limit int) ([]*domain.Gift, error) {
	return r.list(ctx, `WHERE sender_id = $1`, userID, limit)
}

// ListReceived returns gifts the user has received, newest first
func (r *GiftRepository) ListReceived(ctx context.Context, userID string, limit int) ([]*domain.Gift, error) {
	return r.list(ctx, `WHERE recipient_id = $1`, userID, limit)
}

func (r *GiftRepository) list(ctx context.Context, where, userID string, limit int) ([]*domain.Gift, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sender_id, recipient_id, amount, message, created_at
		FROM gifts `+where+`
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, clampLimit(limit, 50, 200))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gifts []*domain.Gift
	for rows.Next() {
		var g domain.Gift
		if err := rows.Scan(&g.ID, &g.SenderID, &g.RecipientID, &g.Amount, &g.Message, &g.CreatedAt); err != nil {
			return nil, err
		}
		gifts = append(gifts, &g)
	}
	return gifts, rows.Err()
}

// TopGifters ranks senders to a recipient by total coins gifted
func (r *GiftRepository) TopGifters(ctx context.Context, recipientID string, limit int) ([]*domain.Gifter, error) {
	rows, err := r.db.Query(ctx, `
		SELECT g.sender_id, p.display_name, p.username, SUM(g.amount)::bigint AS total, COUNT(*) AS cnt
		FROM gifts g
		JOIN profiles p ON p.id = g.sender_id
		WHERE g.recipient_id = $1
		GROUP BY g.sender_id, p.display_name, p.username
		ORDER BY total DESC
		LIMIT $2
	`, recipientID, clampLimit(limit, 10, 100))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Gifter
	for rows.Next() {
		var g domain.Gifter
		if err := rows.Scan(&g.SenderID, &g.DisplayName, &g.Username, &g.Total, &g.Count); err != nil {
			return nil, err
		}
		result = append(result, &g)
	}
	return result, rows.Err()
}

// CountSince is used by admin stats
func (r *GiftRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM gifts WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}
