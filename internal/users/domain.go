package users

import (
	"strings"

	"github.com/binaragam/storefront/internal/shared"
)

// RoleAdmin is the privileged role that unlocks the admin panel.
const RoleAdmin = "admin"

// User is a backend account as seen by the storefront.
type User struct {
	ID        shared.ID        `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      string           `json:"role"`
	CreatedAt shared.Timestamp `json:"created_at"`
}

// IsAdmin reports whether the user holds the privileged role. The role must
// match exactly.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}
