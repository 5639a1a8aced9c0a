package auth

import (
	"sort"
	"strings"
)

// UserRole is the access level attached to a user
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
	RoleUser      UserRole = "user"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}

// ParseRole normalizes s and reports whether it names a known role
func ParseRole(s string) (UserRole, bool) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	return r, r.IsValid()
}

// GetAllRoles returns every known role
func GetAllRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleModerator, RoleUser}
}

func roleNames() string {
	roles := GetAllRoles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// RoleSet is an explicit allow-list of roles for a route group.
// Membership is literal, no role implies another.
type RoleSet map[UserRole]struct{}

// NewRoleSet builds a set from roles, ignoring unknown values
func NewRoleSet(roles ...UserRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r.IsValid() {
			set[r] = struct{}{}
		}
	}
	return set
}

// Allows reports whether role is in the set
func (s RoleSet) Allows(role UserRole) bool {
	_, ok := s[role]
	return ok
}

// Roles returns the members sorted by name
func (s RoleSet) Roles() []UserRole {
	out := make([]UserRole, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s RoleSet) String() string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ",")
}

// Allow-sets used by the access routes
var (
	AdminOnly          = NewRoleSet(RoleAdmin)
	ModeratorsAndAdmin = NewRoleSet(RoleModerator, RoleAdmin)
	AnyVerifiedRole    = NewRoleSet(RoleUser, RoleAdmin, RoleModerator)
)
