package grading

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/CamHV12/edupulse/internal/exam"
)

// UnknownSubject names the subject of a result whose lesson points at a
// subject that no longer exists.
const UnknownSubject = "Không xác định"

// Attempt is the outcome of grading one quiz run.
type Attempt struct {
	Score     int            `json:"score"` // questions answered correctly
	Total     int            `json:"total"`
	TimeSpent string         `json:"time_spent"`
	Answers   map[int]string `json:"answers"`
}

// Correct reports whether answer matches the key of q. Every question type
// goes through the same normalisation; a blank answer never matches.
func Correct(q exam.Question, answer string) bool {
	got := NormalizeAnswer(answer)
	if got == "" {
		return false
	}
	return got == NormalizeAnswer(q.AnswerKey)
}

// GradeAttempt scores answers against the presented questions. Each question
// is worth one point whatever its declared weight; unanswered questions
// simply do not score.
func GradeAttempt(questions []exam.Question, answers map[int]string, startedAt, finishedAt time.Time) Attempt {
	a := Attempt{
		Total:     len(questions),
		TimeSpent: FormatElapsed(finishedAt.Sub(startedAt)),
		Answers:   make(map[int]string, len(answers)),
	}
	for id, v := range answers {
		a.Answers[id] = v
	}
	for _, q := range questions {
		if Correct(q, answers[q.ID]) {
			a.Score++
		}
	}
	return a
}

// FormatElapsed renders a duration as m:ss. Minutes are not folded into
// hours.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FinalScore maps a raw score to the 0-10 scale.
func FinalScore(raw, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(raw) / float64(total) * 10
}

// Verdict compares at full precision against the lesson target.
func Verdict(score float64, l exam.Lesson) exam.Status {
	if score >= l.Target() {
		return exam.StatusPass
	}
	return exam.StatusFail
}

// NewResult builds the record persisted for a submission. subjects is the
// current subject list, used to resolve the subject name.
func NewResult(student exam.User, lesson exam.Lesson, subjects []exam.Subject, a Attempt, at time.Time) exam.Result {
	subjectName := UnknownSubject
	for _, s := range subjects {
		if s.ID == lesson.SubjectID {
			subjectName = s.Name
			break
		}
	}
	score := FinalScore(a.Score, a.Total)
	return exam.Result{
		ID:             "RES_" + strconv.FormatInt(at.UnixMilli(), 10),
		StudentName:    student.Name,
		ClassName:      student.ClassName,
		SubjectName:    subjectName,
		LessonName:     lesson.Name,
		Score:          score,
		TotalQuestions: a.Total,
		Status:         Verdict(score, lesson),
		TimeSpent:      a.TimeSpent,
		Answers:        EncodeAnswers(a.Answers),
		CreatedAt:      at.Format("15:04:05 2/1/2006"),
		Role:           student.Role,
		SubjectID:      lesson.SubjectID,
		LessonID:       lesson.ID,
	}
}

// EncodeAnswers serialises an answer map as a JSON object keyed by question
// id, the shape DecodeAnswers reads first.
func EncodeAnswers(answers map[int]string) string {
	if answers == nil {
		answers = map[int]string{}
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return "{}"
	}
	return string(b)
}
