package app

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/analytics"
	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/grading"
	"github.com/CamHV12/edupulse/internal/notify"
	"github.com/CamHV12/edupulse/internal/progress"
	"github.com/CamHV12/edupulse/internal/rbac"
	"github.com/CamHV12/edupulse/internal/roster"
	"github.com/CamHV12/edupulse/internal/store"
	syncx "github.com/CamHV12/edupulse/internal/sync"
)

const (
	MsgNoSubjects = "no subjects for your grade yet"
	MsgNoStudents = "no students in your scope"
	MsgNoRows     = "no students match the filters"
)

// StudentSubjects lists the subjects of the student's grade.
func (s *Service) StudentSubjects(u exam.User) ([]exam.Subject, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return progress.StudentSubjects(u, snap.Subjects), nil
}

// LessonBoard lays out one subject of the student's grade.
func (s *Service) LessonBoard(u exam.User, subjectID int) ([]progress.LessonCard, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	sub, ok := snap.Subject(subjectID)
	if !ok || sub.Grade != exam.ExtractGrade(u.ClassName) {
		return nil, errors.Wrapf(ErrSubjectNotFound, "subject %d", subjectID)
	}
	return progress.Board(u, subjectID, snap.Lessons, snap.Results), nil
}

func (s *Service) Scope(u exam.User) (rbac.Scope, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return rbac.Scope{}, err
	}
	return rbac.ScopeForRole(u, snap), nil
}

// RosterView is the roster table with the choices of its filter bar.
type RosterView struct {
	Rows     []roster.Row  `json:"rows"`
	Filter   roster.Filter `json:"filter"`
	Sort     roster.Sort   `json:"sort"`
	Classes  []string      `json:"classes"`
	Subjects []string      `json:"subjects"`
	Lessons  []string      `json:"lessons"`
	Empty    bool          `json:"empty"`
	Notice   string        `json:"notice,omitempty"`
}

func (s *Service) Roster(u exam.User, f roster.Filter, order roster.Sort) (RosterView, error) {
	sc, err := s.Scope(u)
	if err != nil {
		return RosterView{}, err
	}
	all := roster.Build(sc.Students, sc.Subjects, sc.Lessons, sc.Results)
	rows := f.Apply(all)
	roster.SortRows(rows, order)

	v := RosterView{
		Rows:    rows,
		Filter:  f,
		Sort:    order,
		Classes: roster.Classes(sc.Students),
		Lessons: roster.LessonNames(f.Subject, sc.Subjects, sc.Lessons),
	}
	seen := map[string]bool{}
	v.Subjects = make([]string, 0, len(sc.Subjects))
	for _, sub := range sc.Subjects {
		if !seen[sub.Name] {
			seen[sub.Name] = true
			v.Subjects = append(v.Subjects, sub.Name)
		}
	}
	switch {
	case len(sc.Students) == 0:
		v.Empty, v.Notice = true, MsgNoStudents
	case len(rows) == 0:
		v.Empty, v.Notice = true, MsgNoRows
	}
	return v, nil
}

// Reminder is what the caller gets back after a reminder was queued.
type Reminder struct {
	Message notify.Message `json:"message"`
	Mailto  string         `json:"mailto"`
	Sent    bool           `json:"sent"` // false when no sender is configured
}

// SendReminder composes the reminder for one roster row and hands it to the
// dispatcher without waiting for delivery. student is an account or, for
// rows without one, a student name.
func (s *Service) SendReminder(u exam.User, student string, lessonID int) (Reminder, error) {
	sc, err := s.Scope(u)
	if err != nil {
		return Reminder{}, err
	}
	student = strings.TrimSpace(student)
	var (
		row   roster.Row
		found bool
	)
	for _, r := range roster.Build(sc.Students, sc.Subjects, sc.Lessons, sc.Results) {
		if r.LessonID == lessonID && (r.Account == student || (r.Account == "" && r.StudentName == student)) {
			row, found = r, true
			break
		}
	}
	if !found {
		return Reminder{}, errors.Wrapf(ErrRowNotFound, "%s / lesson %d", student, lessonID)
	}
	if !row.CanRemind {
		return Reminder{}, ErrNotRemindable
	}
	m, err := notify.ReminderFor(row.StudentName, row.Email, row.LessonName)
	if err != nil {
		return Reminder{}, err
	}
	rem := Reminder{Message: m, Mailto: notify.MailtoURL(m)}
	if s.reminders != nil {
		s.reminders.Dispatch(m)
		rem.Sent = true
	}
	s.log.Info("reminder queued", "by", u.Account, "student", row.StudentName, "lesson", row.LessonName, "sent", rem.Sent)
	return rem, nil
}

func (s *Service) analyticsInput(u exam.User) (analytics.Input, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return analytics.Input{}, err
	}
	sc := rbac.ScopeForRole(u, snap)
	return analytics.Input{
		Viewer:     u,
		Results:    sc.Results,
		AllClasses: snap.AllClasses,
		Subjects:   snap.Subjects,
		Lessons:    snap.Lessons,
	}, nil
}

// Analytics aggregates from f, or from the viewer's initial filters when f
// is nil.
func (s *Service) Analytics(u exam.User, f *analytics.Filters) (analytics.Report, error) {
	in, err := s.analyticsInput(u)
	if err != nil {
		return analytics.Report{}, err
	}
	state := in.Initial()
	if f != nil {
		state = *f
	}
	return in.Aggregate(state), nil
}

// ApplyFilter performs one filter transition and aggregates the new state.
func (s *Service) ApplyFilter(u exam.User, f analytics.Filters, field, value string) (analytics.Report, error) {
	in, err := s.analyticsInput(u)
	if err != nil {
		return analytics.Report{}, err
	}
	next, err := in.Apply(f, field, value)
	if err != nil {
		return analytics.Report{}, err
	}
	return in.Aggregate(next), nil
}

// ReviewResult decodes a stored result visible to u.
func (s *Service) ReviewResult(u exam.User, id string, wrongOnly bool) (grading.Review, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return grading.Review{}, err
	}
	for _, r := range rbac.ScopeForRole(u, snap).Results {
		if r.ID == id {
			return grading.ReviewResult(r, snap.Questions, wrongOnly), nil
		}
	}
	return grading.Review{}, errors.Wrapf(ErrResultNotFound, "%q", id)
}

func (s *Service) FailedSyncs(ctx context.Context) ([]syncx.Entry, error) {
	return s.syncer.Failed(ctx)
}

// Events pages through the sync event log.
func (s *Service) Events(ctx context.Context, after int64, limit int) ([]syncx.Event, error) {
	if s.events == nil {
		return []syncx.Event{}, nil
	}
	return s.events.Since(ctx, after, limit)
}

// SaveItem writes one row of a sheet through the store and reloads the
// snapshot.
func (s *Service) SaveItem(ctx context.Context, u exam.User, sheet string, item map[string]any) error {
	row, err := store.Columns(sheet, item)
	if err != nil {
		return err
	}
	if err := s.store.SaveItem(ctx, sheet, row, store.IDKeys[sheet]); err != nil {
		s.log.Error("saving item", "sheet", sheet, "by", u.Account, "err", err)
		return errors.Wrapf(err, "save %s", sheet)
	}
	s.log.Info("item saved", "sheet", sheet, "by", u.Account)
	return s.Refresh(ctx)
}

func (s *Service) DeleteItem(ctx context.Context, u exam.User, sheet, id string) error {
	key, ok := store.IDKeys[sheet]
	if !ok {
		return errors.Wrapf(store.ErrUnknownSheet, "%q", sheet)
	}
	// numeric ids travel as numbers so the store's cell comparison matches
	var idValue any = id
	if n, err := strconv.Atoi(id); err == nil && sheet != exam.SheetUsers {
		idValue = n
	}
	if err := s.store.DeleteItem(ctx, sheet, idValue, key); err != nil {
		s.log.Error("deleting item", "sheet", sheet, "id", id, "by", u.Account, "err", err)
		return errors.Wrapf(err, "delete %s", sheet)
	}
	s.log.Info("item deleted", "sheet", sheet, "id", id, "by", u.Account)
	return s.Refresh(ctx)
}
