package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CamHV12/edupulse/internal/app"
	auth "github.com/CamHV12/edupulse/internal/auth/middleware"
	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/rbac"
)

// MaintenanceGate answers 503 to everyone but admins while the store is in
// maintenance.
func MaintenanceGate(svc *app.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc.Maintenance() {
				if u, _ := rbac.UserFromContext(r.Context()); u.Role != exam.RoleAdmin {
					http.Error(w, app.ErrMaintenance.Error(), http.StatusServiceUnavailable)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// POST /auth/logout
func LogoutHandler(a *auth.AuthService, svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.Revoke(auth.ClaimsFromContext(r.Context()))
		u, _ := rbac.UserFromContext(r.Context())
		svc.Logout(u)
		w.WriteHeader(http.StatusNoContent)
	}
}

// Mount registers the whole API on r. Offline deployments keep token users
// that are missing from the snapshot; online ones refuse them.
func Mount(r chi.Router, a *auth.AuthService, svc *app.Service, offline bool) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !svc.Ready() {
			http.Error(w, app.ErrNotLoaded.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/auth/login", auth.LoginHandler(a, svc))

	// Protected API (JWT → current user from snapshot → maintenance → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(a))
		pr.Post("/auth/logout", LogoutHandler(a, svc))

		pr.Group(func(pr chi.Router) {
			pr.Use(auth.AttachUserFromSnapshot(svc.FindUser, offline))
			pr.Use(MaintenanceGate(svc))

			// Student flow
			pr.With(rbac.Require(rbac.PermLessonsViewOwn)).
				Get("/me/subjects", MySubjectsHandler(svc))
			pr.With(rbac.Require(rbac.PermLessonsViewOwn)).
				Get("/me/subjects/{subjectID}/lessons", LessonBoardHandler(svc))

			pr.Route("/quiz/sessions", func(qr chi.Router) {
				qr.Use(rbac.Require(rbac.PermQuizTake))
				qr.Post("/", StartQuizHandler(svc))
				qr.Get("/{id}", GetQuizHandler(svc))
				qr.Delete("/{id}", CancelQuizHandler(svc))
				qr.Put("/{id}/answers", AnswerHandler(svc))
				qr.Post("/{id}/submit", SubmitQuizHandler(svc))
			})

			// Teacher / admin
			pr.With(rbac.Require(rbac.PermSnapshotRefresh)).
				Post("/snapshot/refresh", RefreshHandler(svc))
			// the scope feeds both the roster and the analytics filter bars
			pr.With(rbac.RequireAny(rbac.PermScopeView, rbac.PermRosterView, rbac.PermAnalyticsView)).
				Get("/scope", ScopeHandler(svc))
			pr.With(rbac.Require(rbac.PermRosterView)).
				Get("/roster", RosterHandler(svc))
			pr.With(rbac.Require(rbac.PermRemindersSend)).
				Post("/roster/reminders", SendReminderHandler(svc))
			pr.With(rbac.Require(rbac.PermAnalyticsView)).
				Get("/analytics", AnalyticsHandler(svc))
			pr.With(rbac.Require(rbac.PermAnalyticsView)).
				Post("/analytics/filters", ApplyFilterHandler(svc))
			pr.With(rbac.Require(rbac.PermResultsReview)).
				Get("/results/{resultID}/review", ReviewResultHandler(svc))
			pr.With(rbac.Require(rbac.PermSyncView)).
				Get("/sync/failed", FailedSyncsHandler(svc))
			pr.With(rbac.Require(rbac.PermSyncView)).
				Get("/sync/events", SyncEventsHandler(svc))
			pr.With(rbac.Require(rbac.PermItemsWrite)).
				Post("/items", SaveItemHandler(svc))
			pr.With(rbac.Require(rbac.PermItemsWrite)).
				Delete("/items", DeleteItemHandler(svc))
		})
	})
}
