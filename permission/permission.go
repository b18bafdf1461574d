// Package permission defines the static role and capability model: three
// roles (user, lawyer, admin), a fixed permission list, and a bitmask table
// mapping each role to its capabilities. The table is immutable after
// package init.
package permission

import "fmt"

// Role is an account role. The zero value is RoleUser.
type Role uint8

const (
	RoleUser Role = iota
	RoleLawyer
	RoleAdmin

	roleCount
)

var roleNames = [roleCount]string{
	RoleUser:   "user",
	RoleLawyer: "lawyer",
	RoleAdmin:  "admin",
}

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("role(%d)", uint8(r))
	}
	return roleNames[r]
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r < roleCount
}

// MarshalJSON encodes the role by name.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", uint8(r))
	}
	return []byte(`"` + roleNames[r] + `"`), nil
}

// UnmarshalJSON decodes a role from its name.
func (r *Role) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid role %s", data)
	}
	parsed, err := ParseRole(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole resolves a role by name.
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return Role(r), nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

// Permission is a single named capability.
type Permission uint8

const (
	ReadOwnProfile Permission = iota
	UpdateOwnProfile
	ReadNews
	CreateCase
	ReadOwnCases
	UpdateOwnCases
	ReadAssignedCases
	UpdateAssignedCases
	CreateCaseNotes
	ReadOwnSchedule
	UpdateOwnSchedule
	ReadAllProfiles
	UpdateAllProfiles
	DeleteProfiles
	ManageRoles
	ManageSystemSettings
	ReadAllCases
	UpdateAllCases
	DeleteCases

	permissionCount
)

var permissionNames = [permissionCount]string{
	ReadOwnProfile:       "read:own_profile",
	UpdateOwnProfile:     "update:own_profile",
	ReadNews:             "read:news",
	CreateCase:           "create:case",
	ReadOwnCases:         "read:own_cases",
	UpdateOwnCases:       "update:own_cases",
	ReadAssignedCases:    "read:assigned_cases",
	UpdateAssignedCases:  "update:assigned_cases",
	CreateCaseNotes:      "create:case_notes",
	ReadOwnSchedule:      "read:own_schedule",
	UpdateOwnSchedule:    "update:own_schedule",
	ReadAllProfiles:      "read:all_profiles",
	UpdateAllProfiles:    "update:all_profiles",
	DeleteProfiles:       "delete:profiles",
	ManageRoles:          "manage:roles",
	ManageSystemSettings: "manage:system_settings",
	ReadAllCases:         "read:all_cases",
	UpdateAllCases:       "update:all_cases",
	DeleteCases:          "delete:cases",
}

func (p Permission) String() string {
	if p >= permissionCount {
		return fmt.Sprintf("permission(%d)", uint8(p))
	}
	return permissionNames[p]
}

// Mask64 is a 64-bit permission bitmask.
type Mask64 uint64

// Set marks the permission bit.
func (m *Mask64) Set(p Permission) {
	*m |= 1 << uint(p)
}

// Has reports whether the permission bit is set.
func (m Mask64) Has(p Permission) bool {
	return m&(1<<uint(p)) != 0
}

func maskOf(perms ...Permission) Mask64 {
	var m Mask64
	for _, p := range perms {
		m.Set(p)
	}
	return m
}

// roleMasks is the static role -> capability table. Indexing by Role keeps
// the table total: every defined role has an entry.
var roleMasks = [roleCount]Mask64{
	RoleUser: maskOf(
		ReadOwnProfile,
		UpdateOwnProfile,
		ReadNews,
		CreateCase,
		ReadOwnCases,
		UpdateOwnCases,
	),
	RoleLawyer: maskOf(
		ReadOwnProfile,
		UpdateOwnProfile,
		ReadNews,
		ReadAssignedCases,
		UpdateAssignedCases,
		CreateCaseNotes,
		ReadOwnSchedule,
		UpdateOwnSchedule,
	),
	RoleAdmin: maskOf(
		ReadAllProfiles,
		UpdateAllProfiles,
		DeleteProfiles,
		ManageRoles,
		ManageSystemSettings,
		ReadAllCases,
		UpdateAllCases,
		DeleteCases,
	),
}

// Allowed reports whether role carries the permission.
func Allowed(role Role, p Permission) bool {
	if !role.Valid() || p >= permissionCount {
		return false
	}
	return roleMasks[role].Has(p)
}

// Mask returns the capability bitmask for role.
func Mask(role Role) Mask64 {
	if !role.Valid() {
		return 0
	}
	return roleMasks[role]
}

// Permissions returns the named capability list for role, in bit order.
func Permissions(role Role) []Permission {
	if !role.Valid() {
		return nil
	}
	mask := roleMasks[role]
	out := make([]Permission, 0, permissionCount)
	for p := Permission(0); p < permissionCount; p++ {
		if mask.Has(p) {
			out = append(out, p)
		}
	}
	return out
}
