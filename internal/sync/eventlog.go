package syncx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Event types written by the syncer.
const (
	EventResultSynced     = "ResultSynced"
	EventResultSyncFailed = "ResultSyncFailed"
)

type Event struct {
	Seq       int64  `db:"seq" json:"seq"`
	Type      string `db:"typ" json:"type"`
	Key       string `db:"key" json:"key"`
	DataJSON  string `db:"data" json:"data"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

type EventRepo struct{ db *sqlx.DB }

func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

// Append records typ for key with data marshalled to JSON.
func (r *EventRepo) Append(ctx context.Context, typ, key string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "event data")
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO event_log (typ, key, data, created_at) VALUES (?,?,?,?)`),
		typ, key, string(b), time.Now().Unix())
	return errors.Wrap(err, "append event")
}

// DefaultEventPage is the page size when the caller gives none.
const DefaultEventPage = 100

// Since returns up to limit events after seq, oldest first.
func (r *EventRepo) Since(ctx context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultEventPage
	}
	out := []Event{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		`SELECT seq, typ, key, data, created_at FROM event_log WHERE seq > ? ORDER BY seq LIMIT ?`),
		seq, limit)
	return out, errors.Wrap(err, "list events")
}
