package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CamHV12/edupulse/internal/exam"
)

func res(id, name, class, subject, lesson string, score float64, status exam.Status) exam.Result {
	return exam.Result{ID: id, StudentName: name, ClassName: class, SubjectName: subject, LessonName: lesson, Score: score, Status: status, Role: exam.RoleStudent}
}

func fixture(viewer exam.User) Input {
	return Input{
		Viewer:     viewer,
		AllClasses: []string{"9", "9/10", "9/2", "9/1", "10A1", "11B"},
		Subjects: []exam.Subject{
			{ID: 1, Name: "Sinh học", Grade: 9},
			{ID: 2, Name: "Vật lý", Grade: 9},
			{ID: 3, Name: "Sinh học", Grade: 10},
		},
		Lessons: []exam.Lesson{
			{ID: 10, SubjectID: 1, Name: "Bài 1"},
			{ID: 11, SubjectID: 1, Name: "Bài 2"},
			{ID: 20, SubjectID: 2, Name: "Động lực"},
			{ID: 30, SubjectID: 3, Name: "Tế bào"},
		},
		Results: []exam.Result{
			res("r1", "An", "9/1", "Sinh học", "Bài 1", 6.0, exam.StatusFail),
			res("r2", "An", "9/1", "Sinh học", "Bài 1", 9.5, exam.StatusPass),
			res("r3", "An", "9/1", "Sinh học", "Bài 2", 8.0, exam.StatusPass),
			res("r4", "Binh", "9/2", "Sinh học", "Bài 1", 9.5, exam.StatusPass),
			res("r5", "Chi", "9/2", "Vật lý", "Động lực", 4.0, exam.StatusFail),
			res("r6", "Dung", "10A1", "Sinh học", "Tế bào", 10, exam.StatusPass),
		},
	}
}

var admin = exam.User{Name: "Root", Role: exam.RoleAdmin}

func TestPassRate(t *testing.T) {
	assert.Nil(t, PassRate(0, 0))
	require.NotNil(t, PassRate(3, 4))
	assert.Equal(t, 75, *PassRate(3, 4))
	assert.Equal(t, 67, *PassRate(2, 3))
	assert.Equal(t, 33, *PassRate(1, 3))
	assert.Equal(t, 0, *PassRate(0, 5))
	assert.Equal(t, 100, *PassRate(5, 5))
}

func TestLeaderboardUsesBestScoreAndStableOrder(t *testing.T) {
	in := fixture(admin)
	board := Leaderboard(in.Results, LeaderboardSize)
	require.Len(t, board, 4)
	assert.Equal(t, "Dung", board[0].Student)
	assert.Equal(t, "An", board[1].Student)
	assert.Equal(t, 9.5, board[1].Best, "best, not last, attempt")
	assert.Equal(t, "9.5", board[1].BestLabel)
	assert.Equal(t, "Binh", board[2].Student, "ties keep encounter order")
	assert.Equal(t, "Chi", board[3].Student)
}

func TestLeaderboardCapsAtFive(t *testing.T) {
	rs := []exam.Result{}
	for i, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		rs = append(rs, res(n, n, "9/1", "s", "l", float64(i), exam.StatusFail))
	}
	board := Leaderboard(rs, LeaderboardSize)
	require.Len(t, board, 5)
	assert.Equal(t, "g", board[0].Student)
}

func TestAggregateAdminAll(t *testing.T) {
	in := fixture(admin)
	f := in.Initial()
	assert.Equal(t, Filters{Grade: All, Class: All, Subject: All, Lesson: All, Status: All}, f)

	rep := in.Aggregate(f)
	assert.Equal(t, 6, rep.Total)
	assert.Equal(t, 4, rep.Pass)
	assert.Equal(t, 2, rep.Fail)
	require.NotNil(t, rep.PassRate)
	assert.Equal(t, 67, *rep.PassRate)
	assert.Len(t, rep.Rows, 6)
	assert.Equal(t, []int{9, 10, 11}, rep.Options.Grades)
	assert.Equal(t, []string{"9", "9/1", "9/2", "9/10", "10A1", "11B"}, rep.Options.Classes)
}

func TestStructuralFilterCascade(t *testing.T) {
	in := fixture(admin)
	f := in.Initial()

	f, err := in.Apply(f, FieldGrade, "9")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sinh học", "Vật lý"}, in.Options(f).Subjects)
	assert.Equal(t, []string{"Bài 1", "Bài 2", "Động lực"}, in.Options(f).Lessons)

	f, _ = in.Apply(f, FieldSubject, "Sinh học")
	f, _ = in.Apply(f, FieldLesson, "Bài 1")
	rep := in.Aggregate(f)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 2, rep.Pass)

	f, _ = in.Apply(f, FieldSubject, "Vật lý")
	assert.Equal(t, All, f.Lesson, "subject change clears lesson")

	f, _ = in.Apply(f, FieldClass, "9/2")
	assert.Equal(t, "Vật lý", f.Subject, "class change keeps subject")

	f, _ = in.Apply(f, FieldGrade, "10")
	assert.Equal(t, Filters{Grade: "10", Class: All, Subject: All, Lesson: All, Status: All}, f)
}

func TestChartFiltersToggleAndReset(t *testing.T) {
	in := fixture(admin)
	f, _ := in.Apply(in.Initial(), FieldGrade, "9")
	structural := f

	f, _ = in.Apply(f, FieldStatus, "Pass")
	assert.Equal(t, "Pass", f.Status)
	rep := in.Aggregate(f)
	assert.Len(t, rep.Rows, 3)
	assert.Equal(t, 5, rep.Total, "counts ignore chart filters")

	f, _ = in.Apply(f, FieldStatus, "Pass")
	assert.Equal(t, structural, f, "second click clears status and leaves structure alone")

	f, _ = in.Apply(f, FieldStudent, "An")
	f, _ = in.Apply(f, FieldStatus, "Fail")
	rep = in.Aggregate(f)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "r1", rep.Rows[0].ResultID)
	assert.Equal(t, "6.0", rep.Rows[0].ScoreLabel)

	f, _ = in.Apply(f, FieldStudent, "An")
	assert.Empty(t, f.Student)

	f, _ = in.Apply(f, FieldStudent, "Binh")
	f, _ = in.Apply(f, FieldLesson, "Bài 1")
	assert.Empty(t, f.Student, "structural change clears chart filters")
	assert.Equal(t, All, f.Status)

	_, err := in.Apply(f, "colour", "red")
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

func TestEmptyReport(t *testing.T) {
	in := fixture(admin)
	f, _ := in.Apply(in.Initial(), FieldGrade, "11")
	rep := in.Aggregate(f)
	assert.Zero(t, rep.Total)
	assert.Nil(t, rep.PassRate)
	assert.Empty(t, rep.Rows)
	assert.Equal(t, MsgNoRows, rep.RowsNotice)
	assert.Equal(t, MsgNoRanking, rep.Notice)
}

func TestGradeTeacherInitialState(t *testing.T) {
	teacher := exam.User{Name: "T", ClassName: "9", Role: exam.RoleTeacher, SubjectTeacher: "Sinh học"}
	in := fixture(teacher)
	f := in.Initial()
	assert.Equal(t, "9", f.Grade)
	assert.Equal(t, "Sinh học", f.Subject)
	assert.Equal(t, All, f.Class)
	assert.Equal(t, []string{"9/1", "9/2", "9/10"}, in.Options(f).Classes, "bare grade label is hidden")

	f, _ = in.Apply(f, FieldGrade, "10")
	assert.Equal(t, "Sinh học", f.Subject, "specialists keep their subject")
}

func TestClassTeacherAutoSelectsClass(t *testing.T) {
	teacher := exam.User{Name: "T", ClassName: "9/2", Role: exam.RoleTeacher}
	in := fixture(teacher)
	f := in.Initial()
	assert.Equal(t, "9/2", f.Class)
	assert.Equal(t, All, f.Subject)

	f, _ = in.Apply(f, FieldGrade, "9")
	assert.Equal(t, "9/2", f.Class, "re-selected after the grade change")
}

func TestGradeOptionsFallBackToResultLabels(t *testing.T) {
	in := fixture(admin)
	in.AllClasses = nil
	assert.Equal(t, []int{9, 10}, in.Options(in.Initial()).Grades)
}
