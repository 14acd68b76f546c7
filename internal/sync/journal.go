// Package syncx forwards submitted results to the remote store and keeps a
// local journal of how each forward went.
package syncx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/exam"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Entry is one journaled result.
type Entry struct {
	ResultID  string `db:"result_id" json:"result_id"`
	Student   string `db:"student" json:"student"`
	ClassName string `db:"class_name" json:"class_name"`
	Lesson    string `db:"lesson" json:"lesson"`
	Payload   string `db:"payload" json:"payload"`
	Status    Status `db:"status" json:"status"`
	Attempts  int    `db:"attempts" json:"attempts"`
	LastError string `db:"last_error" json:"last_error,omitempty"`
	UpdatedAt int64  `db:"updated_at" json:"updated_at"`
}

// Result decodes the journaled payload.
func (e Entry) Result() (exam.Result, error) {
	var r exam.Result
	err := json.Unmarshal([]byte(e.Payload), &r)
	return r, errors.Wrap(err, "journal payload")
}

type Journal interface {
	MarkPending(ctx context.Context, r exam.Result) error
	MarkOK(ctx context.Context, resultID string) error
	MarkFailed(ctx context.Context, resultID, lastErr string) error
	ListFailed(ctx context.Context) ([]Entry, error)
}

// SQLJournal keeps the journal in the result_journal table.
type SQLJournal struct {
	DB  *sqlx.DB
	Now func() time.Time
}

func NewSQLJournal(db *sqlx.DB) *SQLJournal { return &SQLJournal{DB: db, Now: time.Now} }

func (j *SQLJournal) now() int64 {
	if j.Now == nil {
		return time.Now().Unix()
	}
	return j.Now().Unix()
}

func (j *SQLJournal) MarkPending(ctx context.Context, r exam.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode result")
	}
	_, err = j.DB.ExecContext(ctx, j.DB.Rebind(`
		INSERT INTO result_journal (result_id, student, class_name, lesson, payload, status, attempts, updated_at)
		VALUES (?,?,?,?,?,'pending',1,?)
		ON CONFLICT (result_id)
		DO UPDATE SET status='pending', attempts=result_journal.attempts+1, updated_at=excluded.updated_at`),
		r.ID, r.StudentName, r.ClassName, r.LessonName, string(payload), j.now())
	return errors.Wrap(err, "mark pending")
}

func (j *SQLJournal) MarkOK(ctx context.Context, resultID string) error {
	_, err := j.DB.ExecContext(ctx, j.DB.Rebind(`
		UPDATE result_journal
		   SET status='ok', last_error='', updated_at=?
		 WHERE result_id=?`), j.now(), resultID)
	return errors.Wrap(err, "mark ok")
}

func (j *SQLJournal) MarkFailed(ctx context.Context, resultID, lastErr string) error {
	_, err := j.DB.ExecContext(ctx, j.DB.Rebind(`
		UPDATE result_journal
		   SET status='failed', last_error=?, updated_at=?
		 WHERE result_id=?`), lastErr, j.now(), resultID)
	return errors.Wrap(err, "mark failed")
}

func (j *SQLJournal) ListFailed(ctx context.Context) ([]Entry, error) {
	out := []Entry{}
	err := j.DB.SelectContext(ctx, &out, j.DB.Rebind(`
		SELECT result_id, student, class_name, lesson, payload, status, attempts, last_error, updated_at
		  FROM result_journal
		 WHERE status=?
		 ORDER BY updated_at DESC, result_id`), string(StatusFailed))
	return out, errors.Wrap(err, "list failed")
}

// Get returns the journal entry for one result.
func (j *SQLJournal) Get(ctx context.Context, resultID string) (Entry, error) {
	var e Entry
	err := j.DB.GetContext(ctx, &e, j.DB.Rebind(`
		SELECT result_id, student, class_name, lesson, payload, status, attempts, last_error, updated_at
		  FROM result_journal WHERE result_id=?`), resultID)
	return e, errors.Wrap(err, "get journal entry")
}
