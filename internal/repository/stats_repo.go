package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository runs the aggregate counts behind the admin dashboard
type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

type Counts struct {
	Users                int64
	Talents              int64
	PendingVerifications int64
	OpenDisputes         int64
}

func (r *StatsRepository) Counts(ctx context.Context) (*Counts, error) {
	var c Counts
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(*) FROM profiles WHERE role = 'talent'),
			(SELECT COUNT(*) FROM verifications WHERE status = 'pending'),
			(SELECT COUNT(*) FROM disputes WHERE status IN ('open', 'under_review'))
	`).Scan(&c.Users, &c.Talents, &c.PendingVerifications, &c.OpenDisputes)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
