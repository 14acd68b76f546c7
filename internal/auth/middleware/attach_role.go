package auth

import (
	"net/http"

	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/rbac"
)

// UserLookup finds an account in the current snapshot.
type UserLookup func(account string) (exam.User, bool)

// AttachUserFromSnapshot replaces the token's user with the current record
// of the account, so role or class changes apply without a new login.
// Deactivated accounts are refused. Accounts missing from the snapshot keep
// their token user only when allowClaimFallback is set or they are admins
// (the local admin never appears in the store).
func AttachUserFromSnapshot(lookup UserLookup, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claimed, ok := rbac.UserFromContext(ctx) // set by JWTMiddleware
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			current, found := lookup(claimed.Account)
			switch {
			case found && !current.Active:
				http.Error(w, "account disabled", http.StatusForbidden)
			case found:
				next.ServeHTTP(w, r.WithContext(rbac.WithUser(ctx, current)))
			case claimed.Role == exam.RoleAdmin || allowClaimFallback:
				next.ServeHTTP(w, r)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
