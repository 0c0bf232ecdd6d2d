package user

import (
	"strings"
	"time"
)

// User is a login credential bound to exactly one employee. It carries no
// permissions of its own; the employee's role decides.
type User struct {
	ID           int64
	EmployeeID   int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasLegacyPassword reports whether the stored password predates hashing.
func (u User) HasLegacyPassword() bool {
	return !strings.HasPrefix(u.PasswordHash, "$2")
}
