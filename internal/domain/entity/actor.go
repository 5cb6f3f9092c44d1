package entity

// Actor is the identity performing an engine operation. Every operation takes
// it explicitly; nothing reads an ambient session.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// IsAccounting returns true for accounting staff
func (a Actor) IsAccounting() bool {
	return a.Role == RoleAccounting
}

// IsAdmin returns true for organization administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
