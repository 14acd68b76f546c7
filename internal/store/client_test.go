package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CamHV12/edupulse/internal/exam"
)

const initBody = `{
  "users": [
    {"Account": "an01", "Name": "An", "Class": "9/1", "Email": "an@school.vn", "Role": "Student", "Active": "", "Progress": "ON"},
    {"Account": "hai", "Name": "Thay Hai", "Class": 9, "Role": "teacher", "Subject Teacher": "Sinh học", "Active": "OFF"}
  ],
  "subjects": [{"Stt": 1, "Name": "Sinh học", "Grade": "9"}, {"stt": 2, "name": "Vật lý", "grade": 10}],
  "lessons": [
    {"Stt": 11, "Subject_id": 1, "Name": "Bài 1", "Title": "Tế bào", "Timeout (minute)": "15", "Count": 10, "Target score": "7.5"},
    {"stt": 12, "SubjectID": 1, "name": "Bài 2", "Timeout": 0}
  ],
  "questions": [
    {"stt": 1, "lesson_id": 11, "question_type": "Choose multiple", "question_text": {"value": "Chọn các bào quan"}, "option_A": "Nhân", "option_B": "Ty thể", "answer_key": "A,B", "solution": "..."},
    {"Stt": 2, "LessonID": 11, "Type": "MCQ", "QuestionText": "Q2", "Answer": "C"}
  ],
  "results": [
    {"result_id": "RES_1", "name": "An", "grade": "9/1", "subject_name": "Sinh học", "lesson_name": "Bài 1", "score": "9.5", "total_questions": 10, "status": "Pass", "time_spent": "3:10", "answers": "{\"1\":\"A,B\"}", "created_date": "10:00:00 1/9/2026", "role": "student"},
    {"Result_id": "RES_2", "Name": "Thay Hai", "Grade": "9", "Subject_name": "Sinh học", "Lesson_name": "Bài 2", "Score": 4, "Status": "Fail", "Role": "teacher"}
  ],
  "maintenance": [{"Maintenance": "ON"}],
  "allClasses": ["9/1", 9, {"value": "9/2"}],
  "students": [{"account": "an01", "name": "An", "className": "9/1", "email": "an@school.vn", "role": "student"}]
}`

func newServer(t *testing.T, h func(body map[string]any) any) (*Client, *[]map[string]any) {
	t.Helper()
	var seen []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			assert.Equal(t, "init", r.URL.Query().Get("action"))
			_, _ = io.WriteString(w, initBody)
			return
		}
		assert.Equal(t, "text/plain;charset=utf-8", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		seen = append(seen, body)
		_ = json.NewEncoder(w).Encode(h(body))
	}))
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL, Timeout: 2 * time.Second}), &seen
}

func TestSnapshotNormalizesAliases(t *testing.T) {
	c, _ := newServer(t, nil)
	s, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, s.Users, 2)
	assert.Equal(t, exam.RoleStudent, s.Users[0].Role)
	assert.True(t, s.Users[0].Active, "blank Active defaults to ON")
	assert.True(t, s.Users[0].Progress)
	assert.Equal(t, "9", s.Users[1].ClassName)
	assert.False(t, s.Users[1].Active)
	assert.Equal(t, "Sinh học", s.Users[1].SubjectTeacher)

	assert.Equal(t, []exam.Subject{{ID: 1, Name: "Sinh học", Grade: 9}, {ID: 2, Name: "Vật lý", Grade: 10}}, s.Subjects)

	require.Len(t, s.Lessons, 2)
	assert.Equal(t, 15.0, s.Lessons[0].TimeoutMinutes)
	assert.Equal(t, 10, s.Lessons[0].QuestionCount)
	assert.Equal(t, 7.5, s.Lessons[0].TargetScore)
	assert.Equal(t, 1, s.Lessons[1].SubjectID)
	assert.Equal(t, exam.DefaultTargetScore, s.Lessons[1].TargetScore)

	require.Len(t, s.Questions, 2)
	assert.Equal(t, exam.ChooseMultiple, s.Questions[0].Type)
	assert.Equal(t, "Chọn các bào quan", s.Questions[0].Text)
	assert.Equal(t, [4]string{"Nhân", "Ty thể", "", ""}, s.Questions[0].Options)
	assert.Equal(t, exam.ChooseOne, s.Questions[1].Type)
	assert.Equal(t, "C", s.Questions[1].AnswerKey)

	require.Len(t, s.Results, 2)
	assert.Equal(t, 9.5, s.Results[0].Score)
	assert.Equal(t, 11, s.Results[0].LessonID, "linked after normalizing")
	assert.Equal(t, exam.RoleTeacher, s.Results[1].Role)
	assert.Equal(t, 12, s.Results[1].LessonID)

	assert.True(t, s.Maintenance)
	assert.Equal(t, []string{"9/1", "9", "9/2"}, s.AllClasses)
	require.Len(t, s.Students, 1)
	assert.Equal(t, "9/1", s.Students[0].ClassName)
}

func TestLogin(t *testing.T) {
	c, seen := newServer(t, func(body map[string]any) any {
		if body["password"] == "secret" {
			return map[string]any{"success": true, "user": map[string]any{
				"account": "an01", "name": "An", "className": "9/1", "role": "student", "active": "ON",
			}}
		}
		return map[string]any{"success": false, "message": "Sai mật khẩu"}
	})

	u, err := c.Login(context.Background(), "an01", "secret")
	require.NoError(t, err)
	assert.Equal(t, "An", u.Name)
	assert.Equal(t, exam.RoleStudent, u.Role)
	assert.Equal(t, "login", (*seen)[0]["action"])
	assert.Equal(t, "an01", (*seen)[0]["account"])

	_, err = c.Login(context.Background(), "an01", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	var refused *Refusal
	require.ErrorAs(t, err, &refused)
	assert.Equal(t, "Sai mật khẩu", refused.Message)
}

func TestSubmitResultSendsCamelCasePayload(t *testing.T) {
	c, seen := newServer(t, func(map[string]any) any { return map[string]any{"success": true} })
	r := exam.Result{
		ID: "RES_9", StudentName: "An", ClassName: "9/1", SubjectName: "Sinh học", LessonName: "Bài 1",
		Score: 10, TotalQuestions: 2, Status: exam.StatusPass, TimeSpent: "0:42", Answers: `{"1":"A"}`,
		CreatedAt: "14:05:09 17/10/2026", Role: exam.RoleStudent, LessonID: 11,
	}
	require.NoError(t, c.SubmitResult(context.Background(), r))

	got := (*seen)[0]
	assert.Equal(t, "submitResult", got["action"])
	assert.Equal(t, map[string]any{
		"resultId": "RES_9", "name": "An", "subjectName": "Sinh học", "lessonName": "Bài 1", "grade": "9/1",
		"score": 10.0, "totalQuestions": 2.0, "status": "Pass", "timeSpent": "0:42", "answers": `{"1":"A"}`,
		"createdDate": "14:05:09 17/10/2026", "role": "student",
	}, got["result"])
}

func TestWritesSurfaceRefusals(t *testing.T) {
	c, seen := newServer(t, func(body map[string]any) any {
		if body["action"] == "deleteItem" {
			return map[string]any{"success": false, "message": "not found"}
		}
		return map[string]any{"success": true}
	})
	ctx := context.Background()

	require.NoError(t, c.SaveItem(ctx, exam.SheetSubjects, map[string]any{"Stt": 3, "Name": "Hóa", "Grade": 9}, "Stt"))
	assert.Equal(t, "Subjects", (*seen)[0]["sheetName"])
	assert.Equal(t, "Stt", (*seen)[0]["idKey"])

	err := c.DeleteItem(ctx, exam.SheetSubjects, 3, "Stt")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, 3.0, (*seen)[1]["idValue"])

	require.NoError(t, c.Logout(ctx, "An"))
	assert.Equal(t, "logout", (*seen)[2]["action"])
}

func TestTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := New(Config{URL: srv.URL})

	_, err := c.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, c.SubmitResult(context.Background(), exam.Result{ID: "x"}), ErrUnavailable)

	srv.Close()
	_, err = c.Login(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestNumberCoercion(t *testing.T) {
	assert.Equal(t, 8.5, number("8.5 điểm", 0))
	assert.Equal(t, 8.0, number("abc", 8))
	assert.Equal(t, 8.0, number(nil, 8))
	assert.Equal(t, 8.0, number(true, 8))
	assert.Equal(t, 3.0, number(map[string]any{"value": "3"}, 0))
	assert.Equal(t, "12", text(12.0))
	assert.Equal(t, `{"a":1}`, text(map[string]any{"a": 1.0}))
}
