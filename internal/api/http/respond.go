package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/analytics"
	"github.com/CamHV12/edupulse/internal/app"
	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/notify"
	"github.com/CamHV12/edupulse/internal/progress"
	"github.com/CamHV12/edupulse/internal/roster"
	"github.com/CamHV12/edupulse/internal/store"
)

// msgStoreDown is all a caller learns about a transport failure.
const msgStoreDown = "could not reach the data store, please try again"

var validate = validator.New()

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst and validates its struct tags.
// It writes the 400 itself and returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return check(w, dst)
}

func check(w http.ResponseWriter, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return false
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
	return false
}

// statusOf maps service errors to HTTP codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, app.ErrNotLoaded), errors.Is(err, app.ErrMaintenance):
		return http.StatusServiceUnavailable
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, progress.ErrLessonLocked), errors.Is(err, app.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, exam.ErrAlreadySubmitting), errors.Is(err, exam.ErrSessionClosed),
		errors.Is(err, app.ErrNotRemindable):
		return http.StatusConflict
	case errors.Is(err, exam.ErrSessionNotFound), errors.Is(err, app.ErrSubjectNotFound),
		errors.Is(err, app.ErrLessonNotFound), errors.Is(err, app.ErrResultNotFound),
		errors.Is(err, app.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrNoQuestions), errors.Is(err, notify.ErrNoRecipient),
		errors.Is(err, store.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, exam.ErrUnknownQuestion), errors.Is(err, analytics.ErrUnknownFilter),
		errors.Is(err, roster.ErrUnknownSortKey), errors.Is(err, store.ErrUnknownSheet):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(w http.ResponseWriter, err error) {
	code := statusOf(err)
	msg := err.Error()
	var refused *store.Refusal
	switch {
	case errors.As(err, &refused):
		msg = refused.Message
	case code == http.StatusBadGateway:
		msg = msgStoreDown
	case code == http.StatusInternalServerError:
		msg = "internal error"
	}
	http.Error(w, msg, code)
}
