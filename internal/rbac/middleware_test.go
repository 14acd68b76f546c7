package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CamHV12/edupulse/internal/exam"
)

func serve(h http.Handler, u *exam.User) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if u != nil {
		req = req.WithContext(WithUser(req.Context(), *u))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermRosterView)(ok)

	assert.Equal(t, http.StatusUnauthorized, serve(h, nil))
	assert.Equal(t, http.StatusForbidden, serve(h, &exam.User{Role: exam.RoleStudent}))
	assert.Equal(t, http.StatusNoContent, serve(h, &exam.User{Role: exam.RoleTeacher}))
	assert.Equal(t, http.StatusNoContent, serve(h, &exam.User{Role: exam.RoleAdmin}))

}

func TestRequireAny(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireAny(PermRosterView, PermAnalyticsView)(ok)

	assert.Equal(t, http.StatusUnauthorized, serve(h, nil))
	assert.Equal(t, http.StatusForbidden, serve(h, &exam.User{Role: exam.RoleStudent}))
	assert.Equal(t, http.StatusNoContent, serve(h, &exam.User{Role: exam.RoleTeacher}))
	assert.Equal(t, http.StatusNoContent, serve(h, &exam.User{Role: exam.RoleAdmin}))
}

func TestChecker(t *testing.T) {
	c := NewChecker(map[string][]string{"teacher": {PermRosterView}, "admin": {"*"}})
	assert.True(t, c.Has("teacher", PermRosterView))
	assert.False(t, c.Has("teacher", PermItemsWrite))
	assert.True(t, c.Any("teacher", PermItemsWrite, PermRosterView))
	assert.True(t, c.Has("admin", PermItemsWrite))
	assert.False(t, c.Has("nobody", PermRosterView))
}
