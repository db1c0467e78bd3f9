// Package session derives the signed-in identity from the API's bearer token or
// user payload and persists it per device. The identity only namespaces
// client-side state; the server makes every authorization decision.
package session

import (
	"strconv"
	"strings"
)

// Role names the server uses for administrators.
const (
	RoleAdmin    = "Admin"
	RoleManager  = "Manager"
	RoleCustomer = "Customer"
)

// Identity is the signed-in user as far as the client knows it. Stored under
// the current_user key.
type Identity struct {
	UserID int64  `json:"id,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Key is the namespace for this identity's cart and draft order: the user id
// when known, otherwise the email.
func (i Identity) Key() string {
	if i.UserID != 0 {
		return strconv.FormatInt(i.UserID, 10)
	}
	return strings.ToLower(strings.TrimSpace(i.Email))
}

// IsZero reports whether no usable identity is present.
func (i Identity) IsZero() bool {
	return i.Key() == ""
}

// IsAdmin mirrors the server's admin roles. Only used to hide admin surfaces.
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, RoleAdmin) || strings.EqualFold(i.Role, RoleManager)
}
