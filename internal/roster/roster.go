// Package roster builds the teacher's student-by-lesson progress table.
package roster

import (
	"strings"

	"github.com/CamHV12/edupulse/internal/exam"
)

// NoScore marks a row without any attempt. It sits below every valid score.
const NoScore = -1.0

const unknownSubject = "?"

// Row is one (student, lesson) pair with the student's best attempt.
type Row struct {
	StudentName  string      `json:"name"`
	Account      string      `json:"account,omitempty"`
	ClassName    string      `json:"class_name"`
	Email        string      `json:"email,omitempty"`
	SubjectName  string      `json:"subject_name"`
	LessonID     int         `json:"lesson_id"`
	LessonName   string      `json:"lesson_name"`
	Score        float64     `json:"score"`
	Status       exam.Status `json:"status"`
	Target       float64     `json:"target"`
	BestResultID string      `json:"best_result_id,omitempty"`
	CanRemind    bool        `json:"can_remind"`
}

// Attempted is false for rows that carry NoScore.
func (r Row) Attempted() bool { return r.Status != exam.StatusNotAttempted }

// NeedsReminder is true for rows that failed or were never attempted.
func NeedsReminder(r Row) bool {
	return r.Status == exam.StatusFail || r.Status == exam.StatusNotAttempted
}

// Build joins every student against each lesson of their grade found in
// lessons, keeping the best attempt. There is exactly one row per pair, in
// student then lesson order.
func Build(students []exam.User, subjects []exam.Subject, lessons []exam.Lesson, results []exam.Result) []Row {
	subjectByID := make(map[int]exam.Subject, len(subjects))
	for _, s := range subjects {
		subjectByID[s.ID] = s
	}
	rows := make([]Row, 0)
	for _, st := range students {
		grade := exam.ExtractGrade(st.ClassName)
		for _, l := range lessons {
			sub, ok := subjectByID[l.SubjectID]
			if !ok || sub.Grade != grade {
				continue
			}
			rows = append(rows, row(st, sub, l, results))
		}
	}
	return rows
}

func row(st exam.User, sub exam.Subject, l exam.Lesson, results []exam.Result) Row {
	r := Row{
		StudentName: st.Name,
		Account:     st.Account,
		ClassName:   st.ClassName,
		Email:       st.Email,
		SubjectName: sub.Name,
		LessonID:    l.ID,
		LessonName:  l.Name,
		Score:       NoScore,
		Status:      exam.StatusNotAttempted,
		Target:      l.Target(),
	}
	if r.SubjectName == "" {
		r.SubjectName = unknownSubject
	}
	var best *exam.Result
	for i := range results {
		res := &results[i]
		if !res.BelongsTo(st) || !res.ForLesson(l) {
			continue
		}
		// a later attempt wins a tie
		if best == nil || res.Score >= best.Score {
			best = res
		}
	}
	if best != nil {
		r.Score = best.Score
		r.Status = best.Status
		r.BestResultID = best.ID
	}
	r.CanRemind = NeedsReminder(r)
	return r
}

// Filter narrows rows; empty fields and "ALL" match everything.
type Filter struct {
	Class   string `json:"class"`
	Subject string `json:"subject"`
	Lesson  string `json:"lesson"`
	Status  string `json:"status"`
}

func unset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "ALL"
}

func (f Filter) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if (unset(f.Class) || r.ClassName == f.Class) &&
			(unset(f.Subject) || r.SubjectName == f.Subject) &&
			(unset(f.Lesson) || r.LessonName == f.Lesson) &&
			(unset(f.Status) || string(r.Status) == f.Status) {
			out = append(out, r)
		}
	}
	return out
}
