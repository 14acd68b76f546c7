package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/CamHV12/edupulse/internal/exam"
)

// LocalAdmin is the break-glass account that works while the store is
// unreachable or in maintenance.
type LocalAdmin struct {
	User     string
	PassHash string // bcrypt
}

func (l LocalAdmin) Check(account, password string) (exam.User, bool) {
	if l.User == "" || l.PassHash == "" {
		return exam.User{}, false
	}
	if subtle.ConstantTimeCompare([]byte(account), []byte(l.User)) != 1 {
		return exam.User{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(l.PassHash), []byte(password)) != nil {
		return exam.User{}, false
	}
	return exam.User{Account: l.User, Name: l.User, Role: exam.RoleAdmin, Active: true}, true
}
