package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/CamHV12/edupulse/internal/app"
	"github.com/CamHV12/edupulse/internal/rbac"
)

// GET /me/subjects
func MySubjectsHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := rbac.UserFromContext(r.Context())
		subs, err := svc.StudentSubjects(u)
		if err != nil {
			fail(w, err)
			return
		}
		resp := map[string]any{"subjects": subs, "empty": len(subs) == 0}
		if len(subs) == 0 {
			resp["notice"] = app.MsgNoSubjects
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GET /me/subjects/{subjectID}/lessons
func LessonBoardHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "subjectID"))
		if err != nil {
			http.Error(w, "bad subject id", http.StatusBadRequest)
			return
		}
		u, _ := rbac.UserFromContext(r.Context())
		cards, err := svc.LessonBoard(u, id)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lessons": cards, "empty": len(cards) == 0})
	}
}

// POST /quiz/sessions  { "lesson_id": 3 }
func StartQuizHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LessonID int `json:"lesson_id" validate:"required,gt=0"`
		}
		if !decode(w, r, &req) {
			return
		}
		u, _ := rbac.UserFromContext(r.Context())
		v, err := svc.StartQuiz(u, req.LessonID)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

// GET /quiz/sessions/{id}
func GetQuizHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := rbac.UserFromContext(r.Context())
		v, err := svc.Quiz(u, chi.URLParam(r, "id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// PUT /quiz/sessions/{id}/answers  { "question_id": 12, "value": "B", "toggle": true }
func AnswerHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID int    `json:"question_id" validate:"required"`
			Value      string `json:"value" validate:"max=2000"`
			Toggle     bool   `json:"toggle"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.Toggle && req.Value == "" {
			http.Error(w, "toggle needs an option letter", http.StatusBadRequest)
			return
		}
		u, _ := rbac.UserFromContext(r.Context())
		v, err := svc.Answer(u, chi.URLParam(r, "id"), req.QuestionID, req.Value, req.Toggle)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// POST /quiz/sessions/{id}/submit
// A store failure still answers 200: the submission carries synced=false.
func SubmitQuizHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := rbac.UserFromContext(r.Context())
		sub, err := svc.Submit(r.Context(), u, chi.URLParam(r, "id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// DELETE /quiz/sessions/{id}
func CancelQuizHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := rbac.UserFromContext(r.Context())
		if err := svc.CancelQuiz(u, chi.URLParam(r, "id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
