package rbac

import (
	"strings"

	"github.com/CamHV12/edupulse/internal/exam"
)

// Assignment is what a user is responsible for, read off their class label
// and specialization.
type Assignment struct {
	Role      exam.Role `json:"role"`
	Grade     int       `json:"grade"`
	Class     string    `json:"class,omitempty"` // empty for a whole grade
	Specialty string    `json:"specialty,omitempty"`
}

func AssignmentOf(u exam.User) Assignment {
	label := strings.TrimSpace(u.ClassName)
	a := Assignment{Role: u.Role, Grade: exam.ExtractGrade(label)}
	if !exam.IsGradeLevel(label) {
		a.Class = label
	}
	if u.Role == exam.RoleTeacher {
		a.Specialty = strings.TrimSpace(u.SubjectTeacher)
	}
	return a
}

// GradeLevel is true for a teacher of a whole grade ("9") as opposed to a
// single class ("9/1").
func (a Assignment) GradeLevel() bool { return a.Class == "" }

// coversClass reports whether a student or result labelled label falls in
// this assignment.
func (a Assignment) coversClass(label string) bool {
	label = strings.TrimSpace(label)
	if a.GradeLevel() {
		return exam.ExtractGrade(label) == a.Grade
	}
	return label == a.Class
}

// Scope is the slice of the snapshot a user may act on.
type Scope struct {
	Assignment Assignment      `json:"assignment"`
	Users      []exam.User     `json:"users"`
	Students   []exam.User     `json:"students"`
	Results    []exam.Result   `json:"results"`
	Subjects   []exam.Subject  `json:"subjects"`
	Lessons    []exam.Lesson   `json:"lessons"`
	Questions  []exam.Question `json:"questions"`
}

// ScopeForRole narrows a snapshot to what u may see. Staff submissions are
// never part of any scope's results.
func ScopeForRole(u exam.User, s exam.Snapshot) Scope {
	a := AssignmentOf(u)
	sc := Scope{Assignment: a}
	sc.Users = ScopeUsers(a, s.Users)
	sc.Students = ScopeStudents(a, roster(s))
	sc.Results = ScopeResults(a, s.Results)
	sc.Subjects = ScopeSubjects(a, s.Subjects)
	sc.Lessons = lessonsOf(sc.Subjects, s.Lessons)
	sc.Questions = questionsOf(sc.Lessons, s.Questions)
	return sc
}

// roster prefers the dedicated student list and falls back to student
// accounts.
func roster(s exam.Snapshot) []exam.User {
	if len(s.Students) > 0 {
		return s.Students
	}
	out := make([]exam.User, 0)
	for _, u := range s.Users {
		if u.Role == exam.RoleStudent {
			out = append(out, u)
		}
	}
	return out
}

func ScopeStudents(a Assignment, students []exam.User) []exam.User {
	out := make([]exam.User, 0)
	switch a.Role {
	case exam.RoleAdmin:
		out = append(out, students...)
	case exam.RoleTeacher:
		for _, st := range students {
			if a.coversClass(st.ClassName) {
				out = append(out, st)
			}
		}
	}
	return out
}

func ScopeResults(a Assignment, results []exam.Result) []exam.Result {
	out := make([]exam.Result, 0)
	if a.Role == exam.RoleStudent {
		return out
	}
	for _, r := range results {
		if r.ByStaff() {
			continue
		}
		if a.Role == exam.RoleAdmin || a.coversClass(r.ClassName) {
			out = append(out, r)
		}
	}
	return out
}

// ScopeSubjects: admins see every subject, teachers their grade (narrowed to
// their specialty when they have one), students their own grade.
func ScopeSubjects(a Assignment, subjects []exam.Subject) []exam.Subject {
	out := make([]exam.Subject, 0)
	for _, s := range subjects {
		switch a.Role {
		case exam.RoleAdmin:
		case exam.RoleTeacher:
			if s.Grade != a.Grade || (a.Specialty != "" && s.Name != a.Specialty) {
				continue
			}
		default:
			if s.Grade != a.Grade {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// ScopeUsers lists the accounts a user may manage. Teachers see the student
// accounts of their grade, class-level teachers included.
func ScopeUsers(a Assignment, users []exam.User) []exam.User {
	out := make([]exam.User, 0)
	for _, u := range users {
		switch a.Role {
		case exam.RoleAdmin:
			out = append(out, u)
		case exam.RoleTeacher:
			if u.Role == exam.RoleStudent && exam.ExtractGrade(u.ClassName) == a.Grade {
				out = append(out, u)
			}
		}
	}
	return out
}

func lessonsOf(subjects []exam.Subject, lessons []exam.Lesson) []exam.Lesson {
	ids := make(map[int]bool, len(subjects))
	for _, s := range subjects {
		ids[s.ID] = true
	}
	out := make([]exam.Lesson, 0)
	for _, l := range lessons {
		if ids[l.SubjectID] {
			out = append(out, l)
		}
	}
	return out
}

func questionsOf(lessons []exam.Lesson, questions []exam.Question) []exam.Question {
	ids := make(map[int]bool, len(lessons))
	for _, l := range lessons {
		ids[l.ID] = true
	}
	out := make([]exam.Question, 0)
	for _, q := range questions {
		if ids[q.LessonID] {
			out = append(out, q)
		}
	}
	return out
}
