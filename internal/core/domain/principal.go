package domain

// Principal is the identity resolved for a single request. It is built from
// the stored User on every request and is never persisted or shared.
type Principal struct {
	UserID      string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Authorities []string `json:"authorities"`
}

// NewPrincipal projects u into a request-scoped Principal.
func NewPrincipal(u *User) Principal {
	return Principal{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Authorities: []string{u.Role.Authority()},
	}
}

// HasRole reports whether the principal's role is one of roles.
func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
