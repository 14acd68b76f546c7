package exam

import (
	"sort"
	"strings"
	"time"
)

type QuestionType string

const (
	ChooseOne      QuestionType = "CHOOSE_ONE"
	ChooseMultiple QuestionType = "CHOOSE_MULTIPLE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
)

// ParseQuestionType maps the free-text type column of the question sheet.
// Anything unrecognised is a short answer.
func ParseQuestionType(s string) QuestionType {
	t := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.Contains(t, "MULTIPLE"):
		return ChooseMultiple
	case strings.Contains(t, "CHOOSE ONE"), strings.Contains(t, "CHOOSE_ONE"), strings.Contains(t, "MCQ"):
		return ChooseOne
	case strings.Contains(t, "TRUE"), strings.Contains(t, "ĐÚNG"):
		return TrueFalse
	default:
		return ShortAnswer
	}
}

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole is case-insensitive. Empty or unknown roles are students.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleTeacher:
		return RoleTeacher
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleStudent
	}
}

func (r Role) IsStaff() bool { return r == RoleTeacher || r == RoleAdmin }

type Status string

const (
	StatusPass         Status = "Pass"
	StatusFail         Status = "Fail"
	StatusNotAttempted Status = "Chưa thi"
)

// DefaultTargetScore applies to lessons without a target of their own.
const DefaultTargetScore = 8.0

type Subject struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Grade int    `json:"grade"`
}

type Lesson struct {
	ID             int     `json:"id"`
	SubjectID      int     `json:"subject_id"`
	Name           string  `json:"name"`
	Title          string  `json:"title"`
	TimeoutMinutes float64 `json:"timeout_minutes,omitempty"`
	QuestionCount  int     `json:"question_count,omitempty"` // 0 = whole pool
	TargetScore    float64 `json:"target_score"`
}

// Target is the pass threshold on the 0-10 scale.
func (l Lesson) Target() float64 {
	if l.TargetScore > 0 {
		return l.TargetScore
	}
	return DefaultTargetScore
}

// TimeLimit is the quiz duration: the lesson timeout when set, otherwise
// one minute per drawn question.
func (l Lesson) TimeLimit(questions int) time.Duration {
	if l.TimeoutMinutes > 0 {
		return time.Duration(l.TimeoutMinutes * float64(time.Minute))
	}
	return time.Duration(questions) * time.Minute
}

type Question struct {
	ID        int          `json:"id"`
	LessonID  int          `json:"lesson_id"`
	Type      QuestionType `json:"type"`
	Level     string       `json:"level,omitempty"`
	Point     float64      `json:"point"` // informational; every question weighs one point
	Text      string       `json:"text"`
	ImageID   string       `json:"image_id,omitempty"`
	Options   [4]string    `json:"options"` // A-D, text or image reference
	AnswerKey string       `json:"answer_key,omitempty"`
	Solution  string       `json:"solution,omitempty"`
}

// Public strips the answer key and explanation for students mid-quiz.
func (q Question) Public() Question {
	q.AnswerKey = ""
	q.Solution = ""
	return q
}

type User struct {
	Account        string `json:"account"`
	Name           string `json:"name"`
	ClassName      string `json:"class_name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	SubjectTeacher string `json:"subject_teacher,omitempty"`
	Active         bool   `json:"active"`
	Progress       bool   `json:"progress"`
}

// Result is one graded submission. Student, subject and lesson travel by
// name on the wire; SubjectID and LessonID are resolved locally by Link.
type Result struct {
	ID             string  `json:"id"`
	StudentName    string  `json:"student_name"`
	ClassName      string  `json:"class_name"`
	SubjectName    string  `json:"subject_name"`
	LessonName     string  `json:"lesson_name"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Status         Status  `json:"status"`
	TimeSpent      string  `json:"time_spent"`
	Answers        string  `json:"answers"`
	CreatedAt      string  `json:"created_at"`
	Role           Role    `json:"role"`

	SubjectID int `json:"subject_id,omitempty"`
	LessonID  int `json:"lesson_id,omitempty"`
}

// ByStaff reports test submissions made by teachers or admins.
func (r Result) ByStaff() bool { return r.Role.IsStaff() }

// BelongsTo matches on name and, when both sides carry one, on class label,
// so that two students sharing a name in different classes stay apart.
func (r Result) BelongsTo(u User) bool {
	if r.StudentName != u.Name {
		return false
	}
	rc, uc := strings.TrimSpace(r.ClassName), strings.TrimSpace(u.ClassName)
	return rc == "" || uc == "" || rc == uc
}

// ForLesson prefers the resolved lesson id and falls back to the name.
func (r Result) ForLesson(l Lesson) bool {
	if r.LessonID != 0 {
		return r.LessonID == l.ID
	}
	return r.LessonName == l.Name
}

// Snapshot is the bulk payload of the remote store. It is treated as
// immutable: writers build a new one.
type Snapshot struct {
	Users       []User     `json:"users"`
	Subjects    []Subject  `json:"subjects"`
	Lessons     []Lesson   `json:"lessons"`
	Questions   []Question `json:"questions"`
	Results     []Result   `json:"results"`
	Maintenance bool       `json:"maintenance"`
	AllClasses  []string   `json:"all_classes"`
	Students    []User     `json:"students"`
}

func (s Snapshot) Subject(id int) (Subject, bool) {
	for _, sub := range s.Subjects {
		if sub.ID == id {
			return sub, true
		}
	}
	return Subject{}, false
}

func (s Snapshot) Lesson(id int) (Lesson, bool) {
	for _, l := range s.Lessons {
		if l.ID == id {
			return l, true
		}
	}
	return Lesson{}, false
}

func (s Snapshot) Result(id string) (Result, bool) {
	for _, r := range s.Results {
		if r.ID == id {
			return r, true
		}
	}
	return Result{}, false
}

// SubjectLessons returns the lessons of a subject in id order, which is
// also the prerequisite order.
func SubjectLessons(lessons []Lesson, subjectID int) []Lesson {
	out := make([]Lesson, 0)
	for _, l := range lessons {
		if l.SubjectID == subjectID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func LessonQuestions(questions []Question, lessonID int) []Question {
	out := make([]Question, 0)
	for _, q := range questions {
		if q.LessonID == lessonID {
			out = append(out, q)
		}
	}
	return out
}

// Link resolves the name-based references of every result to subject and
// lesson ids. A lesson name is only trusted inside its own subject; rows
// whose names do not resolve keep zero ids and match by name.
func (s *Snapshot) Link() {
	subjectByName := make(map[string][]Subject, len(s.Subjects))
	for _, sub := range s.Subjects {
		subjectByName[sub.Name] = append(subjectByName[sub.Name], sub)
	}
	for i := range s.Results {
		r := &s.Results[i]
		if r.LessonID != 0 {
			continue
		}
		grade := ExtractGrade(r.ClassName)
		for _, sub := range subjectByName[r.SubjectName] {
			if len(subjectByName[r.SubjectName]) > 1 && sub.Grade != grade {
				continue
			}
			for _, l := range s.Lessons {
				if l.SubjectID == sub.ID && l.Name == r.LessonName {
					r.SubjectID, r.LessonID = sub.ID, l.ID
					break
				}
			}
			if r.LessonID != 0 {
				break
			}
		}
	}
}

// WithResult returns a copy of the snapshot with r appended; the receiver's
// result slice is left untouched.
func (s Snapshot) WithResult(r Result) Snapshot {
	results := make([]Result, len(s.Results), len(s.Results)+1)
	copy(results, s.Results)
	s.Results = append(results, r)
	return s
}
