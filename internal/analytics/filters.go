// Package analytics turns a scoped result log into pass-rate, leaderboard and
// detail views under a chain of cascading filters.
package analytics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/rbac"
)

// All is the "no selection" value of every structural and status filter.
const All = "ALL"

var ErrUnknownFilter = errors.New("unknown analytics filter")

// Filters is the full filter state. Grade, Class, Subject and Lesson are
// structural and cascade in that order; Status and Student are driven by
// clicks on the charts and are cleared by any structural change.
type Filters struct {
	Grade   string `json:"grade"`
	Class   string `json:"class"`
	Subject string `json:"subject"`
	Lesson  string `json:"lesson"`
	Status  string `json:"status"`
	Student string `json:"student,omitempty"`
}

// Field names accepted by Apply.
const (
	FieldGrade      = "grade"
	FieldClass      = "class"
	FieldSubject    = "subject"
	FieldLesson     = "lesson"
	FieldStatus     = "status"
	FieldStudent    = "student"
	FieldResetChart = "reset_chart"
)

// Options are the choices offered for each structural filter given the
// current state.
type Options struct {
	Grades   []int    `json:"grades"`
	Classes  []string `json:"classes"`
	Subjects []string `json:"subjects"`
	Lessons  []string `json:"lessons"`
}

// Input is everything the analytics view is computed from. Results must
// already be scoped to the viewer; subjects and lessons are the full lists.
type Input struct {
	Viewer     exam.User
	Results    []exam.Result
	AllClasses []string
	Subjects   []exam.Subject
	Lessons    []exam.Lesson
}

func (in Input) teacher() bool { return in.Viewer.Role == exam.RoleTeacher }

// specialist teachers keep their subject across grade changes.
func (in Input) specialist() bool {
	return in.teacher() && strings.TrimSpace(in.Viewer.SubjectTeacher) != ""
}

// Initial is the state a viewer lands on: teachers start on their own grade
// and, if they have one, their subject.
func (in Input) Initial() Filters {
	f := Filters{Grade: All, Class: All, Subject: All, Lesson: All, Status: All}
	if in.teacher() {
		f.Grade = strconv.Itoa(exam.ExtractGrade(in.Viewer.ClassName))
		if in.specialist() {
			f.Subject = strings.TrimSpace(in.Viewer.SubjectTeacher)
		}
	}
	return in.settle(f)
}

// Apply performs one filter transition and returns the new state.
func (in Input) Apply(f Filters, field, value string) (Filters, error) {
	value = strings.TrimSpace(value)
	switch field {
	case FieldGrade:
		f.Grade = orAll(value)
		f.Class = All
		if !in.specialist() {
			f.Subject = All
		}
		f.Lesson = All
		f = resetChart(f)
	case FieldClass:
		f.Class = orAll(value)
		f = resetChart(f)
	case FieldSubject:
		f.Subject = orAll(value)
		f.Lesson = All
		f = resetChart(f)
	case FieldLesson:
		f.Lesson = orAll(value)
		f = resetChart(f)
	case FieldStatus:
		if value == f.Status || orAll(value) == All {
			f.Status = All
		} else {
			f.Status = value
		}
	case FieldStudent:
		if value == f.Student {
			f.Student = ""
		} else {
			f.Student = value
		}
	case FieldResetChart:
		f = resetChart(f)
	default:
		return f, errors.Wrapf(ErrUnknownFilter, "field %q", field)
	}
	return in.settle(f), nil
}

func resetChart(f Filters) Filters {
	f.Status = All
	f.Student = ""
	return f
}

func orAll(v string) string {
	if v == "" {
		return All
	}
	return v
}

// settle auto-selects the class when a teacher has exactly one to choose.
func (in Input) settle(f Filters) Filters {
	if in.teacher() && f.Class == All {
		if classes := in.classOptions(f); len(classes) == 1 {
			f.Class = classes[0]
		}
	}
	return f
}

func (in Input) Options(f Filters) Options {
	return Options{
		Grades:   in.gradeOptions(),
		Classes:  in.classOptions(f),
		Subjects: in.subjectOptions(f),
		Lessons:  in.lessonOptions(f),
	}
}

// labels is the known class list, or the labels seen in results when the
// store sent none.
func (in Input) labels() []string {
	if len(in.AllClasses) > 0 {
		return in.AllClasses
	}
	out := make([]string, 0, len(in.Results))
	for _, r := range in.Results {
		out = append(out, strings.TrimSpace(r.ClassName))
	}
	return out
}

func (in Input) gradeOptions() []int {
	seen := map[int]bool{}
	out := make([]int, 0)
	for _, l := range in.labels() {
		g := exam.ExtractGrade(l)
		if g > 0 && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Ints(out)
	return out
}

func (in Input) classOptions(f Filters) []string {
	a := rbac.AssignmentOf(in.Viewer)
	gradeLabel := strconv.Itoa(a.Grade)
	out := make([]string, 0)
	seen := map[string]bool{}
	for _, l := range in.labels() {
		if seen[l] {
			continue
		}
		if f.Grade != All && strconv.Itoa(exam.ExtractGrade(l)) != f.Grade {
			continue
		}
		if in.teacher() {
			if a.GradeLevel() && l == gradeLabel {
				continue
			}
			if !a.GradeLevel() && l != a.Class {
				continue
			}
		}
		seen[l] = true
		out = append(out, l)
	}
	exam.SortNatural(out)
	return out
}

func (in Input) subjectOptions(f Filters) []string {
	out := make([]string, 0)
	seen := map[string]bool{}
	for _, s := range in.Subjects {
		if f.Grade != All && strconv.Itoa(s.Grade) != f.Grade {
			continue
		}
		if !seen[s.Name] {
			seen[s.Name] = true
			out = append(out, s.Name)
		}
	}
	exam.SortNatural(out)
	return out
}

func (in Input) lessonOptions(f Filters) []string {
	ids := map[int]bool{}
	for _, s := range in.Subjects {
		if (f.Grade == All || strconv.Itoa(s.Grade) == f.Grade) && (f.Subject == All || s.Name == f.Subject) {
			ids[s.ID] = true
		}
	}
	out := make([]string, 0)
	seen := map[string]bool{}
	for _, l := range in.Lessons {
		if ids[l.SubjectID] && !seen[l.Name] {
			seen[l.Name] = true
			out = append(out, l.Name)
		}
	}
	exam.SortNatural(out)
	return out
}
