package progress

import "github.com/CamHV12/edupulse/internal/exam"

// LessonCard is one tile of a student's lesson board.
type LessonCard struct {
	Lesson    exam.Lesson `json:"lesson"`
	State     GateState   `json:"state"`
	BestScore *float64    `json:"best_score"`
	Target    float64     `json:"target"`
	Reached   bool        `json:"reached"` // best score meets the target
}

// StudentSubjects lists the subjects of the student's own grade.
func StudentSubjects(student exam.User, subjects []exam.Subject) []exam.Subject {
	grade := exam.ExtractGrade(student.ClassName)
	out := make([]exam.Subject, 0)
	for _, s := range subjects {
		if s.Grade == grade {
			out = append(out, s)
		}
	}
	return out
}

// Board lays out the lessons of one subject for a student, in prerequisite
// order.
func Board(student exam.User, subjectID int, lessons []exam.Lesson, results []exam.Result) []LessonCard {
	ordered := exam.SubjectLessons(lessons, subjectID)
	cards := make([]LessonCard, 0, len(ordered))
	for _, l := range ordered {
		c := LessonCard{
			Lesson: l,
			State:  EvaluateLessonGate(student, l, ordered, results),
			Target: l.Target(),
		}
		if best, ok := BestScore(student, l, results); ok {
			c.BestScore = &best
			c.Reached = best >= c.Target
		}
		cards = append(cards, c)
	}
	return cards
}

// CheckStart refuses a locked lesson.
func CheckStart(student exam.User, lesson exam.Lesson, lessons []exam.Lesson, results []exam.Result) error {
	if EvaluateLessonGate(student, lesson, lessons, results) == Locked {
		return ErrLessonLocked
	}
	return nil
}
