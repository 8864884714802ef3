package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Role is a user role name.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RoleTechnician Role = "technician"
)

// RoleSet is the closed enumeration of roles a deployment accepts.
type RoleSet struct {
	roles map[Role]struct{}
}

// NewRoleSet builds a RoleSet from names. Names are trimmed; empty and
// duplicate names are rejected.
func NewRoleSet(names ...string) (RoleSet, error) {
	set := RoleSet{roles: make(map[Role]struct{}, len(names))}
	for _, n := range names {
		r := Role(strings.TrimSpace(n))
		if r == "" {
			return RoleSet{}, fmt.Errorf("role set: empty role name")
		}
		if _, dup := set.roles[r]; dup {
			return RoleSet{}, fmt.Errorf("role set: duplicate role %q", r)
		}
		set.roles[r] = struct{}{}
	}
	if len(set.roles) == 0 {
		return RoleSet{}, fmt.Errorf("role set: no roles configured")
	}
	return set, nil
}

// Contains reports whether r belongs to the set.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s.roles[r]
	return ok
}

// Names returns the role names in sorted order.
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(s.roles))
	for r := range s.roles {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

func (s RoleSet) String() string {
	return strings.Join(s.Names(), ", ")
}
