package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles used by the static route gate.
// Roles never grant access to a specific resource; ownership does that.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleWriteRead Role = "WRITE_READ"
	RoleReadOnly  Role = "READ_ONLY"
)

// roleRank is the partial order ADMIN > WRITE_READ > READ_ONLY.
var roleRank = map[Role]int{
	RoleReadOnly:  1,
	RoleWriteRead: 2,
	RoleAdmin:     3,
}

// AllRoles lists every role from highest to lowest.
var AllRoles = []Role{RoleAdmin, RoleWriteRead, RoleReadOnly}

// ParseRole accepts the canonical role names case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", NewValidationError("role", fmt.Sprintf("role must be one of %s, %s, %s", RoleAdmin, RoleWriteRead, RoleReadOnly))
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the position of r in the role order, 0 for unknown roles.
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r sits at or above min in the role order.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && min.Valid() && roleRank[r] >= roleRank[min]
}

// Authority is the granted-authority string carried by a Principal.
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// RolesAtLeast returns every role ranked at or above min.
func RolesAtLeast(min Role) []Role {
	out := make([]Role, 0, len(AllRoles))
	for _, r := range AllRoles {
		if r.AtLeast(min) {
			out = append(out, r)
		}
	}
	return out
}
