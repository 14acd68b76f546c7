package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/CamHV12/edupulse/internal/analytics"
	"github.com/CamHV12/edupulse/internal/app"
	"github.com/CamHV12/edupulse/internal/rbac"
	"github.com/CamHV12/edupulse/internal/roster"
)

// GET /scope
func ScopeHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := rbac.UserFromContext(r.Context())
		sc, err := svc.Scope(u)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

// GET /roster?class=&subject=&lesson=&status=&sort=score&desc=true
func RosterHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		key, err := roster.ParseSortKey(q.Get("sort"))
		if err != nil {
			fail(w, err)
			return
		}
		order := roster.Sort{Key: key, Desc: q.Get("desc") == "true"}
		f := roster.Filter{
			Class:   q.Get("class"),
			Subject: q.Get("subject"),
			Lesson:  q.Get("lesson"),
			Status:  q.Get("status"),
		}
		u, _ := rbac.UserFromContext(r.Context())
		v, err := svc.Roster(u, f, order)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// POST /roster/reminders  { "student": "an01", "lesson_id": 3 }
func SendReminderHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Student  string `json:"student" validate:"required"`
			LessonID int    `json:"lesson_id" validate:"required,gt=0"`
		}
		if !decode(w, r, &req) {
			return
		}
		u, _ := rbac.UserFromContext(r.Context())
		rem, err := svc.SendReminder(u, req.Student, req.LessonID)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, rem)
	}
}

// GET /analytics. Without any filter parameter the viewer's initial state
// is used.
func AnalyticsHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var f *analytics.Filters
		if len(q) > 0 {
			f = &analytics.Filters{
				Grade:   orAll(q.Get("grade")),
				Class:   orAll(q.Get("class")),
				Subject: orAll(q.Get("subject")),
				Lesson:  orAll(q.Get("lesson")),
				Status:  orAll(q.Get("status")),
				Student: q.Get("student"),
			}
		}
		u, _ := rbac.UserFromContext(r.Context())
		rep, err := svc.Analytics(u, f)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func orAll(v string) string {
	if v == "" {
		return analytics.All
	}
	return v
}

// POST /analytics/filters  { "filters": {...}, "field": "grade", "value": "9" }
func ApplyFilterHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Filters analytics.Filters `json:"filters"`
			Field   string            `json:"field" validate:"required,oneof=grade class subject lesson status student reset_chart"`
			Value   string            `json:"value"`
		}
		if !decode(w, r, &req) {
			return
		}
		f := req.Filters
		f.Grade, f.Class, f.Subject = orAll(f.Grade), orAll(f.Class), orAll(f.Subject)
		f.Lesson, f.Status = orAll(f.Lesson), orAll(f.Status)

		u, _ := rbac.UserFromContext(r.Context())
		rep, err := svc.ApplyFilter(u, f, req.Field, req.Value)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// GET /results/{resultID}/review?wrong_only=true
func ReviewResultHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := rbac.UserFromContext(r.Context())
		wrongOnly, _ := strconv.ParseBool(r.URL.Query().Get("wrong_only"))
		rev, err := svc.ReviewResult(u, chi.URLParam(r, "resultID"), wrongOnly)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rev)
	}
}

// GET /sync/failed
func FailedSyncsHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.FailedSyncs(r.Context())
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "empty": len(entries) == 0})
	}
}

// GET /sync/events?after=0&limit=100
func SyncEventsHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			After int64 `validate:"gte=0"`
			Limit int   `validate:"gte=0,lte=1000"`
		}
		q := r.URL.Query()
		var err error
		if s := q.Get("after"); s != "" {
			if req.After, err = strconv.ParseInt(s, 10, 64); err != nil {
				http.Error(w, "bad after", http.StatusBadRequest)
				return
			}
		}
		if s := q.Get("limit"); s != "" {
			if req.Limit, err = strconv.Atoi(s); err != nil {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
		}
		if !check(w, &req) {
			return
		}
		evs, err := svc.Events(r.Context(), req.After, req.Limit)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": evs})
	}
}

// POST /items  { "sheet": "Lessons", "item": {...} }
func SaveItemHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Sheet string         `json:"sheet" validate:"required,oneof=Users Subjects Lessons Questions"`
			Item  map[string]any `json:"item" validate:"required,min=1"`
		}
		if !decode(w, r, &req) {
			return
		}
		u, _ := rbac.UserFromContext(r.Context())
		if err := svc.SaveItem(r.Context(), u, req.Sheet, req.Item); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// DELETE /items?sheet=Lessons&id=3
func DeleteItemHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := struct {
			Sheet string `validate:"required,oneof=Users Subjects Lessons Questions"`
			ID    string `validate:"required"`
		}{Sheet: r.URL.Query().Get("sheet"), ID: r.URL.Query().Get("id")}
		if !check(w, &req) {
			return
		}
		u, _ := rbac.UserFromContext(r.Context())
		if err := svc.DeleteItem(r.Context(), u, req.Sheet, req.ID); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// POST /snapshot/refresh
func RefreshHandler(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Refresh(r.Context()); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
