package store

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/CamHV12/edupulse/internal/exam"
)

// row is one spreadsheet record as decoded from the init payload. Column
// headers drift between sheet revisions, so every field is read through a
// list of aliases.
type row map[string]any

// pick returns the first truthy alias, or the last alias' value when none
// is set.
func (r row) pick(keys ...string) any {
	var v any
	for _, k := range keys {
		v = r[k]
		if truthy(v) {
			return v
		}
	}
	return v
}

func (r row) str(keys ...string) string { return text(r.pick(keys...)) }

func (r row) num(def float64, keys ...string) float64 { return number(r.pick(keys...), def) }

func (r row) integer(keys ...string) int { return int(number(r.pick(keys...), 0)) }

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case bool:
		return t
	default:
		return true
	}
}

// text coerces a cell to a string. Rich cells arrive as {"value": ...}.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		if inner, ok := t["value"]; ok {
			return text(inner)
		}
		b, _ := json.Marshal(t)
		return string(b)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// number reads the numeric prefix of a cell ("8.5 điểm" is 8.5) and falls
// back to def when there is none.
func number(v any, def float64) float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return def
		}
		return t
	case map[string]any:
		if inner, ok := t["value"]; ok {
			return number(inner, def)
		}
		return def
	case string:
		m := leadingFloat.FindString(strings.TrimSpace(t))
		if m == "" {
			return def
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

func onOff(v string, def bool) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ON":
		return true
	case "OFF":
		return false
	default:
		return def
	}
}

type initPayload struct {
	Users       []row `json:"users"`
	Subjects    []row `json:"subjects"`
	Lessons     []row `json:"lessons"`
	Questions   []row `json:"questions"`
	Results     []row `json:"results"`
	Maintenance []row `json:"maintenance"`
	AllClasses  []any `json:"allClasses"`
	Students    []row `json:"students"`
}

func (p initPayload) snapshot() exam.Snapshot {
	s := exam.Snapshot{
		Users:      make([]exam.User, 0, len(p.Users)),
		Subjects:   make([]exam.Subject, 0, len(p.Subjects)),
		Lessons:    make([]exam.Lesson, 0, len(p.Lessons)),
		Questions:  make([]exam.Question, 0, len(p.Questions)),
		Results:    make([]exam.Result, 0, len(p.Results)),
		AllClasses: make([]string, 0, len(p.AllClasses)),
		Students:   make([]exam.User, 0, len(p.Students)),
	}
	for _, r := range p.Users {
		s.Users = append(s.Users, exam.User{
			Account:        r.str("Account"),
			Name:           r.str("Name"),
			ClassName:      r.str("Class"),
			Email:          r.str("Email"),
			Progress:       onOff(r.str("Progress"), false),
			Active:         onOff(r.str("Active"), true),
			Role:           exam.ParseRole(r.str("Role")),
			SubjectTeacher: r.str("Subject Teacher"),
		})
	}
	for _, r := range p.Subjects {
		s.Subjects = append(s.Subjects, exam.Subject{
			ID:    r.integer("Stt", "stt"),
			Name:  r.str("Name", "name"),
			Grade: r.integer("Grade", "grade"),
		})
	}
	for _, r := range p.Lessons {
		s.Lessons = append(s.Lessons, exam.Lesson{
			ID:             r.integer("Stt", "stt"),
			SubjectID:      r.integer("Subject_id", "SubjectID"),
			Name:           r.str("Name", "name"),
			Title:          r.str("Title", "title"),
			TimeoutMinutes: r.num(0, "Timeout (minute)", "Timeout"),
			QuestionCount:  r.integer("Count", "Question_count"),
			TargetScore:    r.num(exam.DefaultTargetScore, "Target score", "TargetScore"),
		})
	}
	for _, r := range p.Questions {
		s.Questions = append(s.Questions, exam.Question{
			ID:       r.integer("stt", "Stt"),
			LessonID: r.integer("lesson_id", "LessonID"),
			Type:     exam.ParseQuestionType(r.str("question_type", "Type")),
			Level:    r.str("quiz_level", "Level"),
			Point:    r.num(0, "point"),
			Text:     r.str("question_text", "QuestionText"),
			ImageID:  r.str("image_id", "Image"),
			Options: [4]string{
				r.str("option_A", "OptionA"),
				r.str("option_B", "OptionB"),
				r.str("option_C", "OptionC"),
				r.str("option_D", "OptionD"),
			},
			AnswerKey: r.str("answer_key", "Answer"),
			Solution:  r.str("solution", "Explanation"),
		})
	}
	for _, r := range p.Results {
		s.Results = append(s.Results, exam.Result{
			ID:             r.str("result_id", "Result_id"),
			StudentName:    r.str("name", "Name"),
			ClassName:      r.str("grade", "Grade"),
			SubjectName:    r.str("subject_name", "Subject_name"),
			LessonName:     r.str("lesson_name", "Lesson_name"),
			Score:          r.num(0, "score", "Score"),
			TotalQuestions: r.integer("total_questions", "Total_questions"),
			Status:         exam.Status(r.str("status", "Status")),
			TimeSpent:      r.str("time_spent", "Time_spent"),
			Answers:        r.str("answers", "Answers"),
			CreatedAt:      r.str("created_date", "Created_date"),
			Role:           exam.ParseRole(r.str("role", "Role")),
		})
	}
	if len(p.Maintenance) > 0 {
		s.Maintenance = text(p.Maintenance[0]["Maintenance"]) == "ON"
	}
	for _, c := range p.AllClasses {
		s.AllClasses = append(s.AllClasses, text(c))
	}
	for _, r := range p.Students {
		s.Students = append(s.Students, exam.User{
			Account:   r.str("account"),
			Name:      r.str("name"),
			ClassName: r.str("className"),
			Email:     r.str("email"),
			Role:      exam.ParseRole(r.str("role")),
			Active:    true,
		})
	}
	s.Link()
	return s
}

// wireUser is the login payload's user object.
type wireUser struct {
	Account        any `json:"account"`
	Name           any `json:"name"`
	ClassName      any `json:"className"`
	Email          any `json:"email"`
	Progress       any `json:"progress"`
	Active         any `json:"active"`
	Role           any `json:"role"`
	SubjectTeacher any `json:"subjectTeacher"`
}

func (w wireUser) user() exam.User {
	return exam.User{
		Account:        text(w.Account),
		Name:           text(w.Name),
		ClassName:      text(w.ClassName),
		Email:          text(w.Email),
		Progress:       onOff(text(w.Progress), false),
		Active:         onOff(text(w.Active), true),
		Role:           exam.ParseRole(text(w.Role)),
		SubjectTeacher: text(w.SubjectTeacher),
	}
}

// wireResult is the submitResult body. The store writes these keys to the
// Results sheet verbatim.
type wireResult struct {
	ResultID       string  `json:"resultId"`
	Name           string  `json:"name"`
	SubjectName    string  `json:"subjectName"`
	LessonName     string  `json:"lessonName"`
	Grade          string  `json:"grade"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	Status         string  `json:"status"`
	TimeSpent      string  `json:"timeSpent"`
	Answers        string  `json:"answers"`
	CreatedDate    string  `json:"createdDate"`
	Role           string  `json:"role"`
}

func toWire(r exam.Result) wireResult {
	return wireResult{
		ResultID:       r.ID,
		Name:           r.StudentName,
		SubjectName:    r.SubjectName,
		LessonName:     r.LessonName,
		Grade:          r.ClassName,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Status:         string(r.Status),
		TimeSpent:      r.TimeSpent,
		Answers:        r.Answers,
		CreatedDate:    r.CreatedAt,
		Role:           string(r.Role),
	}
}
