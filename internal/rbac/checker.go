package rbac

import (
	"context"

	"github.com/CamHV12/edupulse/internal/exam"
)

type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	perms, ok := c.RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// ---- user in context ----

type ctxKey struct{}

var ctxKeyUser = ctxKey{}

// WithUser stores the acting user; its role is what the middlewares check.
func WithUser(ctx context.Context, u exam.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

func UserFromContext(ctx context.Context) (exam.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(exam.User)
	return u, ok
}

func RoleFromContext(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return string(u.Role)
	}
	return ""
}
