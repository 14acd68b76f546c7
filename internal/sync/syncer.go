package syncx

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/exam"
)

// Submitter is the store side of a sync.
type Submitter interface {
	SubmitResult(ctx context.Context, r exam.Result) error
}

// EventLog receives one event per sync outcome.
type EventLog interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// Syncer forwards a result once: pending, then ok or failed. There are no
// retries; failed entries stay listed for staff.
type Syncer struct {
	Journal Journal
	Store   Submitter
	Events  EventLog // optional
	Log     *slog.Logger
}

func New(j Journal, store Submitter, events EventLog, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{Journal: j, Store: store, Events: events, Log: log}
}

func (s *Syncer) SyncResult(ctx context.Context, r exam.Result) error {
	if r.ID == "" {
		return errors.New("result has no id")
	}
	if err := s.Journal.MarkPending(ctx, r); err != nil {
		s.Log.Warn("journal write failed", "result_id", r.ID, "err", err)
	}

	if err := s.Store.SubmitResult(ctx, r); err != nil {
		s.Log.Error("result sync failed", "result_id", r.ID, "student", r.StudentName, "err", err)
		if jerr := s.Journal.MarkFailed(ctx, r.ID, err.Error()); jerr != nil {
			s.Log.Warn("journal write failed", "result_id", r.ID, "err", jerr)
		}
		s.event(ctx, EventResultSyncFailed, r, err)
		return errors.Wrapf(err, "sync result %s", r.ID)
	}

	if err := s.Journal.MarkOK(ctx, r.ID); err != nil {
		s.Log.Warn("journal write failed", "result_id", r.ID, "err", err)
	}
	s.event(ctx, EventResultSynced, r, nil)
	return nil
}

func (s *Syncer) Failed(ctx context.Context) ([]Entry, error) {
	return s.Journal.ListFailed(ctx)
}

func (s *Syncer) event(ctx context.Context, typ string, r exam.Result, cause error) {
	if s.Events == nil {
		return
	}
	data := map[string]any{"student": r.StudentName, "lesson": r.LessonName, "score": r.Score}
	if cause != nil {
		data["error"] = cause.Error()
	}
	if err := s.Events.Append(ctx, typ, r.ID, data); err != nil {
		s.Log.Warn("event log write failed", "result_id", r.ID, "err", err)
	}
}
