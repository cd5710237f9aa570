package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"

	"github.com/jackc/pgx/v5"
)

// Channel is the NOTIFY channel the change trigger publishes on.
const Channel = "nego_changes"

// Broadcaster receives decoded change events.
type Broadcaster interface {
	Broadcast(ev domain.ChangeEvent)
}

// Listener holds a dedicated connection LISTENing for row changes.
type Listener struct {
	dsn        string
	out        Broadcaster
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewListener(dsn string, out Broadcaster) *Listener {
	return &Listener{
		dsn:        dsn,
		out:        out,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run listens until ctx is cancelled, reconnecting with backoff.
func (l *Listener) Run(ctx context.Context) {
	backoff := l.minBackoff
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("realtime listener disconnected", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff, l.maxBackoff)
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}
	logger.Info("realtime listener started", "channel", Channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := DecodeNotification(n.Payload)
		if err != nil {
			logger.Warn("bad change notification", "error", err)
			continue
		}
		if ev.Truncated() {
			if err := resolve(ctx, conn, &ev); err != nil {
				if ctx.Err() != nil {
					return err
				}
				logger.Warn("resolve truncated change", "table", ev.Table, "key", ev.Key, "error", err)
				continue
			}
		}
		l.out.Broadcast(ev)
	}
}

// DecodeNotification parses a trigger payload. JSON nulls become empty rows.
func DecodeNotification(payload string) (domain.ChangeEvent, error) {
	var ev domain.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, err
	}
	if string(ev.Record) == "null" {
		ev.Record = nil
	}
	if string(ev.OldRecord) == "null" {
		ev.OldRecord = nil
	}
	return ev, nil
}

// rowQuery loads a row for a truncated notification. Only tables known to
// the subscription filter are resolved.
func rowQuery(ev domain.ChangeEvent) (string, error) {
	if _, ok := tables[ev.Table]; !ok {
		return "", ErrUnknownTable
	}
	if ev.KeyColumn != "id" && ev.KeyColumn != "user_id" {
		return "", fmt.Errorf("unexpected key column %q", ev.KeyColumn)
	}
	return fmt.Sprintf(
		"SELECT to_jsonb(t) - 'password_hash' FROM %s t WHERE t.%s::text = $1",
		pgx.Identifier{ev.Table}.Sanitize(), pgx.Identifier{ev.KeyColumn}.Sanitize(),
	), nil
}

// resolve fills the rows of a truncated event. Deleted rows are gone, so
// their old record carries only the key.
func resolve(ctx context.Context, conn *pgx.Conn, ev *domain.ChangeEvent) error {
	if ev.Type == "DELETE" {
		old, err := json.Marshal(map[string]string{ev.KeyColumn: ev.Key})
		if err != nil {
			return err
		}
		ev.OldRecord = old
		return nil
	}
	q, err := rowQuery(*ev)
	if err != nil {
		return err
	}
	var row []byte
	if err := conn.QueryRow(ctx, q, ev.Key).Scan(&row); err != nil {
		return err
	}
	ev.Record = row
	return nil
}

func nextBackoff(cur, max time.Duration) time.Duration {
	cur *= 2
	if cur > max {
		return max
	}
	return cur
}
