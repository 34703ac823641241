package auth

import "strings"

// Base roles that never grant access to the admin area. Comparison is
// case-insensitive; storage keeps the backend-provided casing.
const (
	RoleMember = "member"
	RoleGuest  = "guest"
)

// Roles that may publish content.
const (
	RolePublisher = "Publisher"
	RoleAdmin     = "Admin"
)

// HasRole reports whether any of the user's roles case-insensitively equals
// any of the requested names. A nil user has no roles.
func HasRole(u *CurrentUser, names ...string) bool {
	if u == nil {
		return false
	}
	for _, have := range u.Roles {
		for _, want := range names {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// HasAdminAccess is the single authorization gate for the entire admin area.
// It holds iff the user is non-nil, has at least one role, and at least one
// role is something other than "member" or "guest" (any case combination).
func HasAdminAccess(u *CurrentUser) bool {
	if u == nil || len(u.Roles) == 0 {
		return false
	}
	for _, r := range u.Roles {
		if !strings.EqualFold(r, RoleMember) && !strings.EqualFold(r, RoleGuest) {
			return true
		}
	}
	return false
}

// CanPublish reports whether the user may publish or unpublish content.
func CanPublish(u *CurrentUser) bool {
	return HasRole(u, RolePublisher, RoleAdmin)
}
