// Package progress decides which lessons a student may attempt. Nothing is
// stored: every answer is derived from the result log on each call.
package progress

import (
	"errors"

	"github.com/CamHV12/edupulse/internal/exam"
)

var ErrLessonLocked = errors.New("lesson is locked until the previous lesson is passed")

type GateState string

const (
	Unlocked GateState = "unlocked"
	Locked   GateState = "locked"
)

// EvaluateLessonGate returns the state of lesson for student. subjectLessons
// may be unsorted and may include lessons of other subjects; only those of
// lesson's subject count, in id order. The first lesson is always unlocked;
// any other needs a Pass on the lesson just before it.
func EvaluateLessonGate(student exam.User, lesson exam.Lesson, subjectLessons []exam.Lesson, results []exam.Result) GateState {
	ordered := exam.SubjectLessons(subjectLessons, lesson.SubjectID)
	idx := -1
	for i, l := range ordered {
		if l.ID == lesson.ID {
			idx = i
			break
		}
	}
	if idx <= 0 {
		// unknown lessons are treated as heads of their own chain
		return Unlocked
	}
	prev := ordered[idx-1]
	for _, r := range results {
		if r.Status == exam.StatusPass && r.BelongsTo(student) && r.ForLesson(prev) {
			return Unlocked
		}
	}
	return Locked
}

// BestScore is the highest score student has on lesson, if any attempt exists.
func BestScore(student exam.User, lesson exam.Lesson, results []exam.Result) (float64, bool) {
	best, found := 0.0, false
	for _, r := range results {
		if !r.BelongsTo(student) || !r.ForLesson(lesson) {
			continue
		}
		if !found || r.Score > best {
			best, found = r.Score, true
		}
	}
	return best, found
}
