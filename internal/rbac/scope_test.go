package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CamHV12/edupulse/internal/exam"
)

func snapshot() exam.Snapshot {
	return exam.Snapshot{
		Users: []exam.User{
			{Name: "An", ClassName: "9/1", Role: exam.RoleStudent},
			{Name: "Binh", ClassName: "9A", Role: exam.RoleStudent},
			{Name: "Chi", ClassName: "10A1", Role: exam.RoleStudent},
			{Name: "Thay Hai", ClassName: "9", Role: exam.RoleTeacher},
		},
		Students: []exam.User{
			{Name: "An", ClassName: "9/1", Role: exam.RoleStudent},
			{Name: "Binh", ClassName: "9A", Role: exam.RoleStudent},
			{Name: "Cuong", ClassName: "9", Role: exam.RoleStudent},
			{Name: "Dung", ClassName: "9/2", Role: exam.RoleStudent},
			{Name: "Chi", ClassName: "10A1", Role: exam.RoleStudent},
		},
		Subjects: []exam.Subject{
			{ID: 1, Name: "Biology", Grade: 9},
			{ID: 2, Name: "Physics", Grade: 9},
			{ID: 3, Name: "Biology", Grade: 10},
		},
		Lessons: []exam.Lesson{
			{ID: 10, SubjectID: 1, Name: "B1"},
			{ID: 20, SubjectID: 2, Name: "P1"},
			{ID: 30, SubjectID: 3, Name: "B10"},
		},
		Questions: []exam.Question{
			{ID: 100, LessonID: 10}, {ID: 200, LessonID: 20}, {ID: 300, LessonID: 30},
		},
		Results: []exam.Result{
			{ID: "r1", StudentName: "An", ClassName: "9/1", Role: exam.RoleStudent},
			{ID: "r2", StudentName: "Binh", ClassName: "9A", Role: exam.RoleStudent},
			{ID: "r3", StudentName: "Chi", ClassName: "10A1", Role: exam.RoleStudent},
			{ID: "r4", StudentName: "Thay Hai", ClassName: "9", Role: exam.RoleTeacher},
			{ID: "r5", StudentName: "Admin", ClassName: "9/1", Role: exam.RoleAdmin},
		},
	}
}

func names(us []exam.User) []string {
	out := []string{}
	for _, u := range us {
		out = append(out, u.Name)
	}
	return out
}

func resultIDs(rs []exam.Result) []string {
	out := []string{}
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestAssignmentOf(t *testing.T) {
	a := AssignmentOf(exam.User{ClassName: " 9 ", Role: exam.RoleTeacher, SubjectTeacher: "Biology"})
	assert.True(t, a.GradeLevel())
	assert.Equal(t, 9, a.Grade)
	assert.Equal(t, "Biology", a.Specialty)

	c := AssignmentOf(exam.User{ClassName: "9/1", Role: exam.RoleTeacher})
	assert.False(t, c.GradeLevel())
	assert.Equal(t, "9/1", c.Class)
	assert.Equal(t, 9, c.Grade)

	s := AssignmentOf(exam.User{ClassName: "9/1", Role: exam.RoleStudent, SubjectTeacher: "x"})
	assert.Empty(t, s.Specialty)
}

func TestGradeLevelTeacherScope(t *testing.T) {
	sc := ScopeForRole(exam.User{Name: "T", ClassName: "9", Role: exam.RoleTeacher}, snapshot())

	assert.Equal(t, []string{"An", "Binh", "Cuong", "Dung"}, names(sc.Students))
	assert.Equal(t, []string{"r1", "r2"}, resultIDs(sc.Results))
	assert.Len(t, sc.Subjects, 2)
	assert.Len(t, sc.Lessons, 2)
	assert.Len(t, sc.Questions, 2)
	assert.Equal(t, []string{"An", "Binh"}, names(sc.Users))
}

func TestClassLevelTeacherScope(t *testing.T) {
	sc := ScopeForRole(exam.User{Name: "T", ClassName: "9/1", Role: exam.RoleTeacher, SubjectTeacher: "Biology"}, snapshot())

	assert.Equal(t, []string{"An"}, names(sc.Students))
	assert.Equal(t, []string{"r1"}, resultIDs(sc.Results))
	require.Len(t, sc.Subjects, 1)
	assert.Equal(t, 1, sc.Subjects[0].ID)
	require.Len(t, sc.Lessons, 1)
	assert.Equal(t, 10, sc.Lessons[0].ID)
	require.Len(t, sc.Questions, 1)
	assert.Equal(t, 100, sc.Questions[0].ID)
	assert.Equal(t, []string{"An", "Binh"}, names(sc.Users), "account management spans the grade")
}

func TestAdminScope(t *testing.T) {
	sc := ScopeForRole(exam.User{Name: "Root", Role: exam.RoleAdmin}, snapshot())

	assert.Len(t, sc.Students, 5)
	assert.Equal(t, []string{"r1", "r2", "r3"}, resultIDs(sc.Results), "staff test submissions are excluded")
	assert.Len(t, sc.Subjects, 3)
	assert.Len(t, sc.Users, 4)
}

func TestStudentScope(t *testing.T) {
	sc := ScopeForRole(exam.User{Name: "An", ClassName: "9/1", Role: exam.RoleStudent}, snapshot())

	assert.Empty(t, sc.Students)
	assert.Empty(t, sc.Results)
	assert.Empty(t, sc.Users)
	assert.Len(t, sc.Subjects, 2)
	assert.Len(t, sc.Lessons, 2)
}

func TestRosterFallsBackToStudentAccounts(t *testing.T) {
	s := snapshot()
	s.Students = nil
	sc := ScopeForRole(exam.User{ClassName: "9", Role: exam.RoleTeacher}, s)
	assert.Equal(t, []string{"An", "Binh"}, names(sc.Students))
}
