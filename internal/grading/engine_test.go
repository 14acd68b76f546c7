package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CamHV12/edupulse/internal/exam"
)

func TestNormalizeAnswer(t *testing.T) {
	cases := map[string]string{
		"A":       "A",
		" b ":     "B",
		"C,B":     "B,C",
		"c, b":    "B,C",
		"A, , C,": "A,C",
		"":        "",
		" , ":     "",
		"D, A, C": "A,C,D",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeAnswer(in), in)
	}
	assert.Equal(t, "HÀ NỘI", NormalizeAnswer("hà nội"))
}

func TestCorrectIsOrderIndependent(t *testing.T) {
	q := exam.Question{ID: 1, Type: exam.ChooseMultiple, AnswerKey: "A,B"}
	assert.True(t, Correct(q, "B,A"))
	assert.True(t, Correct(q, "A, B"))
	assert.True(t, Correct(q, "b,a"))
	assert.False(t, Correct(q, "A"))
	assert.False(t, Correct(q, "A,B,C"))
	assert.False(t, Correct(q, ""))

	blank := exam.Question{ID: 2, Type: exam.ShortAnswer}
	assert.False(t, Correct(blank, ""), "a blank key is never matched by a blank answer")
}

func TestGradeAttempt(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	questions := []exam.Question{
		{ID: 1, Type: exam.ChooseOne, AnswerKey: "A", Point: 5},
		{ID: 2, Type: exam.ChooseMultiple, AnswerKey: "B,C", Point: 1},
		{ID: 3, Type: exam.TrueFalse, AnswerKey: "B"},
		{ID: 4, Type: exam.ShortAnswer, AnswerKey: "Ha Noi"},
	}
	answers := map[int]string{1: "A", 2: "C, B", 4: "ha noi"}

	a := GradeAttempt(questions, answers, start, start.Add(3*time.Minute+7*time.Second))
	assert.Equal(t, 3, a.Score)
	assert.Equal(t, 4, a.Total)
	assert.Equal(t, "3:07", a.TimeSpent)
	assert.Equal(t, answers, a.Answers)

	again := GradeAttempt(questions, answers, start, start.Add(3*time.Minute+7*time.Second))
	assert.Equal(t, a, again)

	answers[1] = "B"
	assert.Equal(t, "A", a.Answers[1], "attempt keeps its own copy of the answers")
}

func TestGradeAttemptEmpty(t *testing.T) {
	now := time.Now()
	a := GradeAttempt(nil, nil, now, now)
	assert.Zero(t, a.Score)
	assert.Zero(t, a.Total)
	assert.Equal(t, 0.0, FinalScore(a.Score, a.Total))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00", FormatElapsed(0))
	assert.Equal(t, "0:00", FormatElapsed(-time.Second))
	assert.Equal(t, "0:59", FormatElapsed(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "75:05", FormatElapsed(75*time.Minute+5*time.Second))
}

func TestVerdict(t *testing.T) {
	l := exam.Lesson{}
	assert.Equal(t, exam.StatusPass, Verdict(8.0, l))
	assert.Equal(t, exam.StatusFail, Verdict(7.999, l))
	assert.Equal(t, exam.StatusPass, Verdict(5, exam.Lesson{TargetScore: 5}))
	assert.Equal(t, exam.StatusFail, Verdict(FinalScore(2, 3), exam.Lesson{TargetScore: 6.67}))
}

func TestNewResult(t *testing.T) {
	at := time.Date(2026, 10, 17, 14, 5, 9, 0, time.UTC)
	student := exam.User{Name: "An", ClassName: "9/1", Role: exam.RoleStudent}
	lesson := exam.Lesson{ID: 3, SubjectID: 7, Name: "L1"}
	a := Attempt{Score: 1, Total: 2, TimeSpent: "1:00", Answers: map[int]string{1: "A"}}

	r := NewResult(student, lesson, []exam.Subject{{ID: 7, Name: "Biology", Grade: 9}}, a, at)
	assert.Equal(t, "RES_"+"1792245909000", r.ID)
	assert.Equal(t, "Biology", r.SubjectName)
	assert.Equal(t, "9/1", r.ClassName)
	assert.Equal(t, 5.0, r.Score)
	assert.Equal(t, exam.StatusFail, r.Status)
	assert.Equal(t, `{"1":"A"}`, r.Answers)
	assert.Equal(t, "14:05:09 17/10/2026", r.CreatedAt)
	assert.Equal(t, 3, r.LessonID)

	orphan := NewResult(student, lesson, nil, a, at)
	assert.Equal(t, UnknownSubject, orphan.SubjectName)
}

func TestBiologyScenario(t *testing.T) {
	subject := exam.Subject{ID: 1, Name: "Biology", Grade: 9}
	l1 := exam.Lesson{ID: 1, SubjectID: 1, Name: "L1", TargetScore: 8.0}
	questions := []exam.Question{
		{ID: 1, LessonID: 1, Type: exam.ChooseOne, AnswerKey: "A"},
		{ID: 2, LessonID: 1, Type: exam.ChooseMultiple, AnswerKey: "B,C"},
	}
	start := time.Now()
	a := GradeAttempt(questions, map[int]string{1: "A", 2: "C,B"}, start, start.Add(time.Minute))
	require.Equal(t, 2, a.Score)
	require.Equal(t, 2, a.Total)

	r := NewResult(exam.User{Name: "An", ClassName: "9/1"}, l1, []exam.Subject{subject}, a, start)
	assert.Equal(t, 10.0, r.Score)
	assert.Equal(t, exam.StatusPass, r.Status)
}
