package app

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/grading"
	"github.com/CamHV12/edupulse/internal/progress"
)

// submissionTTL is how long a finished quiz stays readable by its owner.
const submissionTTL = time.Hour

// QuizView is a session as its owner sees it: answer keys stay hidden
// until the quiz is submitted.
type QuizView struct {
	exam.Session
	Submission *Submission `json:"submission,omitempty"`
}

// Submission is the outcome of a finished quiz.
type Submission struct {
	Result exam.Result    `json:"result"`
	Review grading.Review `json:"review"`
	// Synced is false when the store did not take the result; the review
	// is valid either way.
	Synced    bool      `json:"synced"`
	SyncError string    `json:"sync_error,omitempty"`
	Auto      bool      `json:"auto_submitted"`
	at        time.Time
}

func publicView(sess exam.Session) QuizView {
	qs := make([]exam.Question, len(sess.Questions))
	for i, q := range sess.Questions {
		qs[i] = q.Public()
	}
	sess.Questions = qs
	return QuizView{Session: sess}
}

func sameUser(a, b exam.User) bool {
	return a.Account == b.Account && a.Name == b.Name
}

// StartQuiz draws the lesson's questions and starts the countdown.
// Students must have unlocked the lesson; staff may try any lesson.
func (s *Service) StartQuiz(u exam.User, lessonID int) (QuizView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return QuizView{}, err
	}
	lesson, ok := snap.Lesson(lessonID)
	if !ok {
		return QuizView{}, errors.Wrapf(ErrLessonNotFound, "lesson %d", lessonID)
	}
	if u.Role == exam.RoleStudent {
		sub, ok := snap.Subject(lesson.SubjectID)
		if !ok || sub.Grade != exam.ExtractGrade(u.ClassName) {
			return QuizView{}, errors.Wrapf(ErrLessonNotFound, "lesson %d", lessonID)
		}
		if err := progress.CheckStart(u, lesson, snap.Lessons, snap.Results); err != nil {
			return QuizView{}, err
		}
	}

	s.rngMu.Lock()
	drawn := exam.DrawQuestions(exam.LessonQuestions(snap.Questions, lesson.ID), lesson.QuestionCount, s.rng)
	s.rngMu.Unlock()

	sess, err := s.sessions.Start(u, lesson, drawn)
	if err != nil {
		return QuizView{}, errors.Wrapf(err, "lesson %d", lessonID)
	}
	s.log.Info("quiz started", "session", sess.ID, "student", u.Name, "lesson", lesson.Name, "questions", len(drawn), "limit", sess.Remaining)
	return publicView(sess), nil
}

// Quiz returns a session owned by u. A finished session carries its
// submission, answer keys included.
func (s *Service) Quiz(u exam.User, id string) (QuizView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return QuizView{}, err
	}
	if !sameUser(sess.Student, u) {
		return QuizView{}, ErrNotOwner
	}
	if sess.State != exam.SessionSubmitted {
		return publicView(sess), nil
	}
	v := QuizView{Session: sess}
	s.subMu.Lock()
	if sub, ok := s.submissions[id]; ok {
		v.Submission = &sub
	}
	s.subMu.Unlock()
	return v, nil
}

// Answer records an answer. With toggle set, value is one option letter
// flipped in or out of a multi-choice set.
func (s *Service) Answer(u exam.User, id string, questionID int, value string, toggle bool) (QuizView, error) {
	if err := s.own(u, id); err != nil {
		return QuizView{}, err
	}
	var (
		sess exam.Session
		err  error
	)
	if toggle {
		sess, err = s.sessions.Toggle(id, questionID, value)
	} else {
		sess, err = s.sessions.Answer(id, questionID, value)
	}
	if err != nil {
		return QuizView{}, err
	}
	return publicView(sess), nil
}

// CancelQuiz abandons a quiz in progress without a result.
func (s *Service) CancelQuiz(u exam.User, id string) error {
	if err := s.own(u, id); err != nil {
		return err
	}
	return s.sessions.Cancel(id)
}

// Submit grades the quiz, records the result locally and forwards it to
// the store. A store failure is reported in the submission, not as an
// error.
func (s *Service) Submit(ctx context.Context, u exam.User, id string) (Submission, error) {
	if err := s.own(u, id); err != nil {
		return Submission{}, err
	}
	sess, err := s.sessions.BeginSubmit(id)
	if err != nil {
		return Submission{}, err
	}
	return s.finish(ctx, sess, false), nil
}

func (s *Service) autoSubmit(id string) {
	sess, err := s.sessions.BeginSubmit(id)
	if err != nil {
		// the owner submitted at the last tick
		return
	}
	s.log.Info("quiz time is up", "session", id, "student", sess.Student.Name)
	s.background(func(ctx context.Context) { s.finish(ctx, sess, true) })
}

func (s *Service) finish(ctx context.Context, sess exam.Session, auto bool) Submission {
	at := s.now()
	snap, _ := s.Snapshot()
	attempt := grading.GradeAttempt(sess.Questions, sess.Answers, sess.StartedAt, at)
	result := grading.NewResult(sess.Student, sess.Lesson, snap.Subjects, attempt, at)
	s.appendResult(result)

	sub := Submission{
		Result: result,
		Review: grading.ReviewAttempt(sess.Questions, sess.Answers, false),
		Auto:   auto,
		at:     at,
	}
	sub.Review.ResultID = result.ID
	if err := s.syncer.SyncResult(ctx, result); err != nil {
		sub.SyncError = err.Error()
	} else {
		sub.Synced = true
		s.markSynced(result.ID)
	}
	s.sessions.Finish(sess.ID)

	s.subMu.Lock()
	for id, old := range s.submissions {
		if at.Sub(old.at) > submissionTTL {
			delete(s.submissions, id)
			s.sessions.Forget(id)
		}
	}
	s.submissions[sess.ID] = sub
	s.subMu.Unlock()

	s.log.Info("quiz submitted", "session", sess.ID, "result_id", result.ID, "student", result.StudentName,
		"score", result.Score, "status", result.Status, "synced", sub.Synced, "auto", auto)
	return sub
}

func (s *Service) own(u exam.User, id string) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	if !sameUser(sess.Student, u) {
		return ErrNotOwner
	}
	return nil
}
